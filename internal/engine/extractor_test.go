package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlq-router/internal/catalog"
)

func ruleWithParams(t *testing.T, params ...catalog.ParameterSpec) *catalog.Rule {
	t.Helper()
	rec := catalog.IntentRule{
		ID:             "r1",
		Name:           "test_rule",
		Parameters:     params,
		ActionType:     catalog.ActionLiteral,
		ActionTemplate: "ok",
		Status:         catalog.StatusActive,
	}
	snap := catalog.BuildSnapshot([]catalog.IntentRule{rec})
	require.Empty(t, snap.Rejected)
	require.Len(t, snap.Rules, 1)
	return &snap.Rules[0]
}

func TestExtractValueListDirectHit(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name:     "factory",
		Required: true,
		Extraction: catalog.Extraction{
			Kind:       catalog.ExtractValueList,
			Candidates: []string{"深圳工厂", "重庆工厂"},
		},
	})

	values, missing := Extract(rule, "查询深圳工厂库存")
	assert.Empty(t, missing)
	assert.Equal(t, "深圳工厂", values["factory"])
}

func TestExtractValueListFirstPositionalWins(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name: "factory",
		Extraction: catalog.Extraction{
			Kind:       catalog.ExtractValueList,
			Candidates: []string{"深圳工厂", "重庆工厂"},
		},
	})

	// Both candidates occur; declaration order decides.
	values, _ := Extract(rule, "对比重庆工厂和深圳工厂")
	assert.Equal(t, "深圳工厂", values["factory"])
}

func TestExtractValueListAliasStoresCanonical(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name:     "factory",
		Required: true,
		Extraction: catalog.Extraction{
			Kind:       catalog.ExtractValueList,
			Candidates: []string{"深圳工厂", "重庆工厂"},
			AliasMap:   map[string]string{"重庆": "重庆工厂"},
		},
	})

	values, missing := Extract(rule, "重庆的库存怎么样")
	assert.Empty(t, missing)
	assert.Equal(t, "重庆工厂", values["factory"])
}

func TestExtractPatternTakesFirstCaptureGroup(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name:     "sample_no",
		Required: true,
		Extraction: catalog.Extraction{
			Kind:    catalog.ExtractPattern,
			Pattern: `([A-Z]{2}\d{6,})`,
		},
	})

	values, missing := Extract(rule, "样品SN202401的检测结果 以及SN999999")
	assert.Empty(t, missing)
	assert.Equal(t, "SN202401", values["sample_no"], "first match wins")
}

func TestExtractMissingRequired(t *testing.T) {
	rule := ruleWithParams(t,
		catalog.ParameterSpec{
			Name:     "factory",
			Required: true,
			Extraction: catalog.Extraction{
				Kind:       catalog.ExtractValueList,
				Candidates: []string{"深圳工厂"},
			},
		},
		catalog.ParameterSpec{
			Name:     "batch_no",
			Required: true,
			Extraction: catalog.Extraction{
				Kind:    catalog.ExtractPattern,
				Pattern: `(PC\d+)`,
			},
		},
	)

	values, missing := Extract(rule, "查询库存")
	assert.Empty(t, values)
	assert.Equal(t, []string{"factory", "batch_no"}, missing, "declaration order preserved")
}

func TestExtractOptionalFallsBackToDefault(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name: "period",
		Extraction: catalog.Extraction{
			Kind:    catalog.ExtractDefault,
			Default: "30",
		},
	})

	values, missing := Extract(rule, "最近的不良率")
	assert.Empty(t, missing)
	assert.Equal(t, "30", values["period"])
}

func TestExtractOptionalValueListDefault(t *testing.T) {
	rule := ruleWithParams(t, catalog.ParameterSpec{
		Name: "factory",
		Extraction: catalog.Extraction{
			Kind:       catalog.ExtractValueList,
			Candidates: []string{"深圳工厂"},
			Default:    "深圳工厂",
		},
	})

	values, missing := Extract(rule, "整体不良率")
	assert.Empty(t, missing)
	assert.Equal(t, "深圳工厂", values["factory"])
}

func TestExtractSeededFillsOnlyFailedParameters(t *testing.T) {
	rule := ruleWithParams(t,
		catalog.ParameterSpec{
			Name:     "factory",
			Required: true,
			Extraction: catalog.Extraction{
				Kind:       catalog.ExtractValueList,
				Candidates: []string{"深圳工厂", "重庆工厂"},
			},
		},
	)

	// Seed supplies the factory from an earlier turn.
	values, missing := ExtractSeeded(rule, "那库存呢", map[string]string{"factory": "重庆工厂"})
	assert.Empty(t, missing)
	assert.Equal(t, "重庆工厂", values["factory"])

	// A fresh extraction in the text beats the seed.
	values, missing = ExtractSeeded(rule, "深圳工厂的库存", map[string]string{"factory": "重庆工厂"})
	assert.Empty(t, missing)
	assert.Equal(t, "深圳工厂", values["factory"])
}

func TestExtractIndependentParametersShareText(t *testing.T) {
	// Two parameters may match overlapping substrings; each searches the
	// whole raw text.
	rule := ruleWithParams(t,
		catalog.ParameterSpec{
			Name: "code",
			Extraction: catalog.Extraction{
				Kind:    catalog.ExtractPattern,
				Pattern: `(PC\d+)`,
			},
		},
		catalog.ParameterSpec{
			Name: "digits",
			Extraction: catalog.Extraction{
				Kind:    catalog.ExtractPattern,
				Pattern: `(\d+)`,
			},
		},
	)

	values, _ := Extract(rule, "批次PC2024001")
	assert.Equal(t, "PC2024001", values["code"])
	assert.Equal(t, "2024001", values["digits"])
}
