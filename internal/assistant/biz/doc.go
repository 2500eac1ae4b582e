// Package biz 实现问答助手的检索增强生成流程：
// 文档切分、向量化、检索、相关度门控、提示词构建、答案生成与日志。
package biz
