package biz

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultAbbreviations 是招生领域的常用缩写。
var DefaultAbbreviations = map[string]string{
	"БВИ": "без вступительных испытаний",
	"ЕГЭ": "единый государственный экзамен",
	"ВИ":  "вступительные испытания",
	"ОВЗ": "ограниченные возможности здоровья",
	"СПО": "среднее профессиональное образование",
	"ВО":  "высшее образование",
	"ЦП":  "целевая подготовка",
}

// QueryProcessor 在向量化之前展开领域缩写。
// 匹配区分大小写且按整词进行，缩写替换为 "ABBR (expansion)"。
type QueryProcessor struct {
	abbrs      []string
	expansions map[string]string
}

// NewQueryProcessor 创建问题预处理器，dict 为空时使用 DefaultAbbreviations。
func NewQueryProcessor(dict map[string]string) *QueryProcessor {
	if len(dict) == 0 {
		dict = DefaultAbbreviations
	}
	p := &QueryProcessor{expansions: make(map[string]string, len(dict))}
	for abbr, exp := range dict {
		if abbr == "" {
			continue
		}
		p.abbrs = append(p.abbrs, abbr)
		p.expansions[abbr] = exp
	}
	// 长的优先，保证结果与 map 遍历顺序无关
	sort.Slice(p.abbrs, func(i, j int) bool {
		if len(p.abbrs[i]) != len(p.abbrs[j]) {
			return len(p.abbrs[i]) > len(p.abbrs[j])
		}
		return p.abbrs[i] < p.abbrs[j]
	})
	return p
}

// Process 返回规范化后的问题，没有可识别缩写时原样返回。
func (p *QueryProcessor) Process(raw string) string {
	var (
		b       strings.Builder
		changed bool
		prev    rune = -1
	)
	for i := 0; i < len(raw); {
		if !isWordRune(prev) {
			if abbr, ok := p.matchAt(raw, i); ok {
				if !changed {
					b.Grow(len(raw) + 32)
					b.WriteString(raw[:i])
					changed = true
				}
				b.WriteString(abbr)
				b.WriteString(" (")
				b.WriteString(p.expansions[abbr])
				b.WriteString(")")
				i += len(abbr)
				prev, _ = utf8.DecodeLastRuneInString(abbr)
				continue
			}
		}

		r, size := utf8.DecodeRuneInString(raw[i:])
		if changed {
			b.WriteString(raw[i : i+size])
		}
		prev = r
		i += size
	}

	if !changed {
		return raw
	}
	return b.String()
}

func (p *QueryProcessor) matchAt(s string, i int) (string, bool) {
	for _, abbr := range p.abbrs {
		if !strings.HasPrefix(s[i:], abbr) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(s[i+len(abbr):])
		if i+len(abbr) == len(s) || !isWordRune(next) {
			return abbr, true
		}
	}
	return "", false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
