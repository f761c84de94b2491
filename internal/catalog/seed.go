package catalog

import (
	"context"
	"fmt"
	"log"
)

// SeedRules returns the default inspection-domain rule set. The same data
// backs mock mode and the `rules seed` admin command, so demos and fresh
// databases start from identical routing behavior.
func SeedRules() []IntentRule {
	return []IntentRule{
		{
			ID:           "00000000-0000-0000-0000-000000000001",
			Name:         "factory_inventory",
			Category:     "inventory",
			TriggerWords: []string{"库存", "仓库", "物料"},
			Synonyms: map[string][]string{
				"库存": {"存货", "剩余"},
			},
			Parameters: []ParameterSpec{
				{
					Name:     "factory",
					Required: true,
					Extraction: Extraction{
						Kind:       ExtractValueList,
						Candidates: []string{"深圳工厂", "重庆工厂", "东莞工厂"},
						AliasMap: map[string]string{
							"深圳": "深圳工厂",
							"重庆": "重庆工厂",
							"东莞": "东莞工厂",
						},
					},
				},
			},
			ActionType: ActionQuery,
			ActionTemplate: `SELECT material_code, material_name, quantity, unit, updated_at
  FROM inventory
 WHERE factory = :factory
 ORDER BY updated_at DESC`,
			Priority:     10,
			SortOrder:    10,
			Status:       StatusActive,
			ExampleQuery: "查询深圳工厂库存",
		},
		{
			ID:           "00000000-0000-0000-0000-000000000002",
			Name:         "lab_test_results",
			Category:     "lab",
			TriggerWords: []string{"检测结果", "检测", "化验", "实验室"},
			Synonyms: map[string][]string{
				"检测": {"检验", "测试"},
			},
			Parameters: []ParameterSpec{
				{
					Name:     "sample_no",
					Required: true,
					Extraction: Extraction{
						Kind:    ExtractPattern,
						Pattern: `([A-Z]{2}\d{6,})`,
					},
				},
			},
			ActionType: ActionQuery,
			ActionTemplate: `SELECT sample_no, item_name, result_value, judgement, tested_at
  FROM lab_results
 WHERE sample_no = :sample_no
 ORDER BY tested_at DESC`,
			Priority:     10,
			SortOrder:    20,
			Status:       StatusActive,
			ExampleQuery: "查询样品SN202401的检测结果",
		},
		{
			ID:           "00000000-0000-0000-0000-000000000003",
			Name:         "production_tracking",
			Category:     "production",
			TriggerWords: []string{"生产进度", "批次", "生产"},
			Synonyms: map[string][]string{
				"批次": {"批号", "lot"},
			},
			Parameters: []ParameterSpec{
				{
					Name:     "batch_no",
					Required: true,
					Extraction: Extraction{
						Kind:    ExtractPattern,
						Pattern: `(PC\d{4,})`,
					},
				},
			},
			ActionType: ActionQuery,
			ActionTemplate: `SELECT batch_no, product_name, stage, completed_qty, planned_qty, updated_at
  FROM production_batches
 WHERE batch_no = :batch_no`,
			Priority:     8,
			SortOrder:    30,
			Status:       StatusActive,
			ExampleQuery: "批次PC2024001的生产进度",
		},
		{
			ID:           "00000000-0000-0000-0000-000000000004",
			Name:         "defect_rate",
			Category:     "quality",
			TriggerWords: []string{"不良率", "合格率", "缺陷"},
			Synonyms: map[string][]string{
				"不良率": {"不合格率", "次品率"},
			},
			Parameters: []ParameterSpec{
				{
					Name:     "factory",
					Required: false,
					Extraction: Extraction{
						Kind:       ExtractValueList,
						Candidates: []string{"深圳工厂", "重庆工厂", "东莞工厂"},
						AliasMap: map[string]string{
							"深圳": "深圳工厂",
							"重庆": "重庆工厂",
							"东莞": "东莞工厂",
						},
						Default: "深圳工厂",
					},
				},
				{
					Name:     "period",
					Required: false,
					Extraction: Extraction{
						Kind:    ExtractDefault,
						Default: "30",
					},
				},
			},
			ActionType: ActionQuery,
			ActionTemplate: `SELECT factory, product_line, defect_rate, sample_size, stat_date
  FROM defect_stats
 WHERE factory = :factory
   AND stat_date >= CURRENT_DATE - (:period || ' days')::interval
 ORDER BY stat_date DESC`,
			Priority:     8,
			SortOrder:    40,
			Status:       StatusActive,
			ExampleQuery: "深圳工厂最近的不良率",
		},
		{
			ID:           "00000000-0000-0000-0000-000000000005",
			Name:         "greeting",
			Category:     "chat",
			TriggerWords: []string{"你好", "您好", "hello", "hi"},
			ActionType:   ActionLiteral,
			ActionTemplate: "你好，我是质检数据助手。可以问我库存、检测结果、生产进度或不良率，例如：查询深圳工厂库存。",
			Priority:     1,
			SortOrder:    90,
			Status:       StatusActive,
			ExampleQuery: "你好",
		},
	}
}

// Seed inserts the default rule set through the repository, skipping rules
// whose name already exists.
func Seed(ctx context.Context, repo *PostgresRepository) (int, error) {
	inserted := 0
	for _, rule := range SeedRules() {
		if _, err := repo.GetRuleByName(ctx, rule.Name); err == nil {
			log.Printf("seed: rule %s already exists, skipping", rule.Name)
			continue
		}

		rule.ID = "" // let the database assign IDs
		if _, err := repo.CreateRule(ctx, &rule); err != nil {
			return inserted, fmt.Errorf("failed to seed rule %s: %w", rule.Name, err)
		}
		inserted++
	}
	return inserted, nil
}
