package engine

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "spaced latin words",
			text: "show inventory for shenzhen",
			want: []string{"show", "inventory", "for", "shenzhen"},
		},
		{
			name: "cjk run stays one token",
			text: "查询深圳工厂库存",
			want: []string{"查询深圳工厂库存"},
		},
		{
			name: "punctuation separates",
			text: "库存,深圳工厂；多少?",
			want: []string{"库存", "深圳工厂", "多少"},
		},
		{
			name: "digits form tokens",
			text: "批次 PC2024001 的进度",
			want: []string{"批次", "PC2024001", "的进度"},
		},
		{
			name: "duplicates dropped first seen order",
			text: "库存 深圳 库存 深圳",
			want: []string{"库存", "深圳"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "only punctuation",
			text: "?!，。",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
