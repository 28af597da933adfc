package llm

import (
	"fmt"
	"strings"

	"eco-menu/internal/history"
)

// Token ceilings for the two operations. Large enough for the fixed JSON
// schemas, tunable without breaking callers.
const (
	recognizeMaxTokens = 1024
	menuMaxTokens      = 2048
)

const recognizeSystemPrompt = `あなたは画像から食材を特定するアシスタントです。` +
	`出力は必ず {"ingredients": ["食材1", "食材2", ...]} というJSON形式のみを行ってください。` +
	`挨拶文やmarkdown記法は一切含めないでください。`

const recognizeUserPrompt = `この画像に写っている食材を全て特定し、日本語で一覧にしてください。`

const menuSystemPrompt = `あなたは優秀な料理研究家です。出力は必ずJSON形式のみを行ってください。` +
	`余計な説明や装飾は一切不要です。`

// buildMenuPrompt interpolates the ingredient list and the recent history
// into the fixed three-day menu instruction.
func buildMenuPrompt(ingredients []string, recent []history.Entry) string {
	historyText := "なし"
	if len(recent) > 0 {
		var lines []string
		for _, e := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", e.Date, e.MainDish))
		}
		historyText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`以下の食材を使って、3日分の献立を提案してください。
食材を無駄なく使い切ることを最優先してください。

## 使用可能な食材
%s

## 最近の献立（マンネリ防止のため、これらとは違う料理にしてください）
%s

## 出力形式
以下のJSON形式で出力してください:
{
  "days": [
    {"day": 1, "main_dish": "主菜名", "side_dish": "副菜名", "instructions": "調理手順の概要"},
    {"day": 2, "main_dish": "主菜名", "side_dish": "副菜名", "instructions": "調理手順の概要"},
    {"day": 3, "main_dish": "主菜名", "side_dish": "副菜名", "instructions": "調理手順の概要"}
  ],
  "shopping_list": ["買い足しが必要な食材1", "買い足しが必要な食材2"]
}

必ずJSONのみを出力し、挨拶文やmarkdown記法は含めないでください。`,
		strings.Join(ingredients, "、"), historyText)
}
