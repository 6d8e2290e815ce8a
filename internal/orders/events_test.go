package orders

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlacedMessageWireFormat(t *testing.T) {
	b := mustMarshal(OrderPlacedMessage{
		OrderID:    7,
		OrderItems: []OrderItemRequest{{SKUCode: "A1", Quantity: 3}},
	})

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "OrderId")
	assert.Contains(t, m, "orderItems")

	items, ok := m["orderItems"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Contains(t, first, "skuCode")
	assert.Contains(t, first, "quantity")
}

func TestRoutingKeyMatchesTopicBinding(t *testing.T) {
	assert.Equal(t, "order.created.42", RoutingKey(42))
	assert.True(t, strings.HasPrefix(RoutingKey(1), "order.created."))
}
