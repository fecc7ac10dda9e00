package kintone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"SalesReport/internal/models"
)

// 客户主数据应用的字段代码。
const (
	clientNameField = "会社名"  // 会社名（检索对象）
	clientIDField   = "顧客ID" // 业务顾客编号
	internalIDField = "$id"   // 存储内部行 ID
)

// searchLimit 是一次检索返回的最大件数。
const searchLimit = 20

type recordValue struct {
	Value string `json:"value"`
}

type searchResponse struct {
	Records []map[string]recordValue `json:"records"`
}

// SearchClients 按会社名的部分一致在客户主数据应用中检索，最多返回 20 件。
//
// 空白关键字不发起网络调用，直接返回空结果。每条命中暴露业务顾客编号；
// 该字段在行上缺失时回退为内部行 ID。调用失败由上层降级为空结果加诊断，
// 这里只负责返回 LookupError。
func (c *Client) SearchClients(ctx context.Context, keyword string) ([]models.ClientReference, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`%s like "%s" limit %d`, clientNameField, escapeQuery(keyword), searchLimit)
	params := url.Values{}
	params.Set("app", c.clientAppID)
	params.Set("query", query)
	params.Add("fields[0]", internalIDField)
	params.Add("fields[1]", clientIDField)
	params.Add("fields[2]", clientNameField)

	respBody, err := c.do(ctx, "GET", "/k/v1/records.json?"+params.Encode(), "", nil)
	if err != nil {
		return nil, &models.LookupError{Err: err}
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &models.LookupError{Err: err}
	}

	clients := make([]models.ClientReference, 0, len(result.Records))
	for _, record := range result.Records {
		ref := models.ClientReference{
			ID:       record[clientIDField].Value,
			RecordID: record[internalIDField].Value,
			Name:     record[clientNameField].Value,
		}
		if ref.ID == "" {
			ref.ID = ref.RecordID
		}
		clients = append(clients, ref)
	}
	return clients, nil
}

// escapeQuery 转义 kintone 查询字符串字面量中的引号与反斜杠。
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
