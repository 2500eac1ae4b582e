package llm

import "time"

// 以下函数从工厂配置 map 中读取强类型值，缺失或类型不符时返回 false。

// String 读取非空字符串。
func String(config map[string]any, key string) (string, bool) {
	v, ok := config[key].(string)
	return v, ok && v != ""
}

// Int 读取非负整数，0 是有效值（如 max_retries=0 表示不重试）。
func Int(config map[string]any, key string) (int, bool) {
	v, ok := config[key].(int)
	return v, ok && v >= 0
}

// Float 读取浮点数。
func Float(config map[string]any, key string) (float64, bool) {
	v, ok := config[key].(float64)
	return v, ok
}

// Duration 读取正的时间间隔。
func Duration(config map[string]any, key string) (time.Duration, bool) {
	v, ok := config[key].(time.Duration)
	return v, ok && v > 0
}
