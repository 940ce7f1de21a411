package orders

import (
	"context"
	"strconv"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// Column is a column of the customer's order list.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DetailLine is an extra labelled row on the order detail view.
type DetailLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ViewExtension contributes columns and rows to the customer order views.
type ViewExtension interface {
	OrderListColumns(base []Column) []Column
	OrderListCell(ctx context.Context, order *domain.Order, column string) (string, bool)
	OrderDetailLines(ctx context.Context, order *domain.Order) []DetailLine
}

// Base order list columns.
const (
	ColumnOrderNumber = "order-number"
	ColumnOrderDate   = "order-date"
	ColumnOrderStatus = "order-status"
	ColumnOrderItems  = "order-items"
)

// BaseColumns returns the order list columns every shop shows.
func BaseColumns() []Column {
	return []Column{
		{Key: ColumnOrderNumber, Label: "Order"},
		{Key: ColumnOrderDate, Label: "Date"},
		{Key: ColumnOrderStatus, Label: "Status"},
		{Key: ColumnOrderItems, Label: "Items"},
	}
}

// OrderList is the rendered customer order list.
type OrderList struct {
	Columns []Column  `json:"columns"`
	Rows    []ListRow `json:"rows"`
}

// ListRow is one order in the list, keyed by column.
type ListRow struct {
	OrderID int64             `json:"order_id"`
	Cells   map[string]string `json:"cells"`
}

// OrderDetail is the rendered order detail view.
type OrderDetail struct {
	*domain.Order
	Details []DetailLine `json:"details"`
}

func baseCell(order *domain.Order, column string, loc *time.Location) (string, bool) {
	switch column {
	case ColumnOrderNumber:
		return "#" + strconv.FormatInt(order.ID, 10), true
	case ColumnOrderDate:
		return order.CreatedAt.In(loc).Format(domain.ExpiryLayout), true
	case ColumnOrderStatus:
		return string(order.Status), true
	case ColumnOrderItems:
		total := 0
		for _, item := range order.Items {
			total += item.Quantity
		}
		return strconv.Itoa(total), true
	}
	return "", false
}

// BuildList renders orders into list rows. Columns without a base value are
// filled by ext, or left empty.
func BuildList(ctx context.Context, list []domain.Order, ext ViewExtension, loc *time.Location) OrderList {
	columns := BaseColumns()
	if ext != nil {
		columns = ext.OrderListColumns(columns)
	}

	rows := make([]ListRow, 0, len(list))
	for i := range list {
		order := &list[i]
		cells := make(map[string]string, len(columns))
		for _, col := range columns {
			if v, ok := baseCell(order, col.Key, loc); ok {
				cells[col.Key] = v
				continue
			}
			if ext != nil {
				if v, ok := ext.OrderListCell(ctx, order, col.Key); ok {
					cells[col.Key] = v
					continue
				}
			}
			cells[col.Key] = ""
		}
		rows = append(rows, ListRow{OrderID: order.ID, Cells: cells})
	}

	return OrderList{Columns: columns, Rows: rows}
}

// BuildDetail renders a single order with the extension rows.
func BuildDetail(ctx context.Context, order *domain.Order, ext ViewExtension) OrderDetail {
	details := make([]DetailLine, 0)
	if ext != nil {
		details = append(details, ext.OrderDetailLines(ctx, order)...)
	}
	return OrderDetail{Order: order, Details: details}
}
