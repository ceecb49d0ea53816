package summary

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/newsreader/app/news"
)

const maxBodyRunes = 3000

const systemPrompt = `你是一名专业的新闻编辑。请用简洁、客观的中文概括用户提供的新闻，突出事件、人物、时间和影响。不要添加原文没有的信息。`

const userPrompt = `请为以下新闻生成不超过200字的摘要。

标题：%s

正文：%s`

// BuildMessages builds the system and user prompts for one article.
func BuildMessages(article news.Article) []Message {
	body := news.Truncate(news.PlainText(article.Body), maxBodyRunes)
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPrompt, strings.TrimSpace(article.Title), body)},
	}
}
