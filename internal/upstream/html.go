package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-media-cache/internal/config"
)

// htmlProvider extracts items from markup with the configured CSS selectors
type htmlProvider struct {
	baseProvider
}

func (p *htmlProvider) fetch(ctx context.Context, operation string, params map[string]string) (json.RawMessage, error) {
	op, ok := p.operations[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownOperation, p.name, operation)
	}

	target, err := buildURL(p.baseURL, operation, op.Path, params)
	if err != nil {
		return nil, err
	}

	body, err := p.get(ctx, target)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup from %s: %w", p.name, err)
	}

	items := extractItems(doc.Selection, op)
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	return data, nil
}

// extractItems returns one object per item match. Fields whose selector
// matches nothing are left out of the object.
func extractItems(root *goquery.Selection, op config.OperationConfig) []map[string]string {
	items := make([]map[string]string, 0)

	root.Find(op.Item).Each(func(_ int, item *goquery.Selection) {
		obj := make(map[string]string, len(op.Fields))
		for name, field := range op.Fields {
			if val, ok := extractField(item, field); ok {
				obj[name] = val
			}
		}
		items = append(items, obj)
	})

	return items
}

func extractField(item *goquery.Selection, field config.FieldConfig) (string, bool) {
	sel := item
	if field.Selector != "" {
		sel = item.Find(field.Selector).First()
	}
	if sel.Length() == 0 {
		return "", false
	}

	if field.Attr != "" {
		val, ok := sel.Attr(field.Attr)
		return strings.TrimSpace(val), ok
	}
	return strings.TrimSpace(sel.Text()), true
}
