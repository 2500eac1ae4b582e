package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryProcessor(t *testing.T) {
	p := NewQueryProcessor(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "无缩写原样返回", in: "Какие документы нужны?", want: "Какие документы нужны?"},
		{name: "展开缩写", in: "Что такое БВИ?", want: "Что такое БВИ (без вступительных испытаний)?"},
		{name: "多个缩写", in: "ЕГЭ и ВИ", want: "ЕГЭ (единый государственный экзамен) и ВИ (вступительные испытания)"},
		{name: "区分大小写", in: "что такое бви", want: "что такое бви"},
		{name: "只匹配整词", in: "ВИДЕО и ВОЗ", want: "ВИДЕО и ВОЗ"},
		{name: "词尾标点", in: "ОВЗ,СПО.", want: "ОВЗ (ограниченные возможности здоровья),СПО (среднее профессиональное образование)."},
		{name: "空字符串", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Process(tt.in))
		})
	}
}

func TestQueryProcessorCustomDictionary(t *testing.T) {
	p := NewQueryProcessor(map[string]string{"ЦП": "целевая подготовка", "ЦПК": "центр повышения квалификации"})
	assert.Equal(t, "ЦПК (центр повышения квалификации) и ЦП (целевая подготовка)", p.Process("ЦПК и ЦП"))
	assert.Equal(t, "БВИ", p.Process("БВИ"))
}

func TestQueryProcessorDeterministic(t *testing.T) {
	p := NewQueryProcessor(nil)
	in := "БВИ для СПО"
	first := p.Process(in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, p.Process(in))
	}
}
