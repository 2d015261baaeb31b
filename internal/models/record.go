package models

import (
	"math"
	"strconv"
	"strings"
)

// Destination field names of a product document.
const (
	FieldName              = "name"
	FieldSKU               = "sku"
	FieldSize              = "size"
	FieldColor             = "color"
	FieldPrice             = "price"
	FieldSales             = "sales"
	FieldStock             = "stock"
	FieldInventoryRotation = "inventory_rotation"
	FieldDate              = "date"
	FieldSheet             = "sheet"
)

// ProductRecord is one row of the product sheet export. Cells are kept as
// the raw text of the file; the type of each value is inferred when the
// destination document is built.
type ProductRecord struct {
	ProductNumber     string `csv:"Product number"`
	ProductName       string `csv:"Product name"`
	SKUNumber         string `csv:"SKU Number"`
	Size              string `csv:"Size"`
	Color             string `csv:"Color"`
	Price             string `csv:"Price"`
	Sales             string `csv:"Sales"`
	Stock             string `csv:"Stock"`
	InventoryRotation string `csv:"Inventory Rotation"`
	Date              string `csv:"Date"`
	Sheet             string `csv:"Sheet"`
}

// Columns lists the header names every input table must carry.
var Columns = []string{
	"Product number",
	"Product name",
	"SKU Number",
	"Size",
	"Color",
	"Price",
	"Sales",
	"Stock",
	"Inventory Rotation",
	"Date",
	"Sheet",
}

// Document is the body of a destination document, keyed by field name.
type Document map[string]interface{}

// StoredDocument is a document as read back from a store.
type StoredDocument struct {
	ID     string   `json:"id"`
	Fields Document `json:"fields"`
}

// Key returns the document id for the record: the product number in text form.
func (r ProductRecord) Key() string {
	return KeyText(InferValue(r.ProductNumber))
}

// Document renames the record's columns to destination fields.
func (r ProductRecord) Document() Document {
	return Document{
		FieldName:              InferValue(r.ProductName),
		FieldSKU:               InferValue(r.SKUNumber),
		FieldSize:              InferValue(r.Size),
		FieldColor:             InferValue(r.Color),
		FieldPrice:             InferValue(r.Price),
		FieldSales:             InferValue(r.Sales),
		FieldStock:             InferValue(r.Stock),
		FieldInventoryRotation: InferValue(r.InventoryRotation),
		FieldDate:              InferValue(r.Date),
		FieldSheet:             InferValue(r.Sheet),
	}
}

// InferValue converts a cell to int64, float64, nil (empty cell) or leaves it
// as a string.
func InferValue(cell string) interface{} {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return cell
}

// KeyText formats an inferred value as a document id.
func KeyText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}
