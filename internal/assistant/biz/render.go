package biz

import (
	"fmt"
	"strings"
)

// NoInformationText 是相关度不足时返回给用户的固定文本。
const NoInformationText = "К сожалению, я не нашёл информации по вашему вопросу в документах.\n\n" +
	"Попробуйте переформулировать вопрос или обратитесь напрямую в приёмную комиссию университета."

// GenerationFailedText 是生成失败时返回给用户的道歉文本。
const GenerationFailedText = "😔 Извините, сейчас не удалось сформировать ответ. Пожалуйста, повторите вопрос чуть позже."

// RenderAnswer 渲染面向聊天的回复文本，最多列出 maxSources 个来源。
func RenderAnswer(ans *Answer, maxSources int) string {
	if ans == nil {
		return GenerationFailedText
	}
	if ans.NoInformation {
		return NoInformationText
	}

	var b strings.Builder
	b.WriteString("💬 Ответ:\n\n")
	b.WriteString(ans.Answer)

	sources := ans.Sources
	if maxSources >= 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	if len(sources) > 0 {
		b.WriteString("\n\n📚 Источники:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "%d. 📄 %s", i+1, s.FileName)
			if s.Page > 0 {
				fmt.Fprintf(&b, ", стр. %d", s.Page)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
