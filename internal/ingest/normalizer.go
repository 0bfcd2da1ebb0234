package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/invosync/invosync/internal/category/domain"
	"github.com/invosync/invosync/internal/coerce"
	"github.com/invosync/invosync/internal/config"
	customerdomain "github.com/invosync/invosync/internal/customer/domain"
	"github.com/invosync/invosync/internal/extract"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	vendordomain "github.com/invosync/invosync/internal/vendors/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Candidate paths per logical attribute. Order is the extraction
// priority contract: more specific, structured sources come before
// generic fallbacks, and when a record duplicates a field at several
// locations the earlier entry wins. New upstream shapes are supported by
// appending rows, not by branching.
var (
	vendorDirectKeys   = []string{"vendor", "supplier", "supplier_info", "vendor_info", "vendorDetails"}
	vendorNestedPaths  = []string{"extractedData.llmData.vendor.value"}
	vendorLikelyPaths  = []string{"extractedData.vendor", "extracted.vendor"}
	vendorNameFallback = []string{"metadata.seller", "metadata.bill_from"}

	customerDirectKeys  = []string{"customer", "client", "bill_to", "customerDetails"}
	customerNestedPaths = []string{"extractedData.llmData.customer.value", "extractedData.llmData.client.value"}

	invoiceNumberAliases = []string{"invoice_number", "number", "inv_no", "documentNumber", "name"}
	invoiceRefAliases    = []string{"invoice_ref", "_id", "id", "ref"}
	issueDateAliases     = []string{"issue_date", "date", "invoice_date", "issuedAt"}
	dueDateAliases       = []string{"due_date", "due", "payment_due", "dueAt"}
	subtotalAliases      = []string{"subtotal", "amount_before_tax", "sub_total", "netAmount", "subTotal"}
	taxAliases           = []string{"tax", "total_tax", "taxAmount"}
	totalAliases         = []string{"total", "grand_total", "amount", "totalAmount"}
	currencyAliases      = []string{"currency", "total_currency", "currencyCode"}

	lineItemDirectKeys  = []string{"line_items", "items", "lines", "lineItems"}
	lineItemNestedPaths = []string{
		"extractedData.llmData.lineItems.value.items",
		"extractedData.llmData.lineItems.items",
		"extractedData.llmData.line_items.value.items",
		"extractedData.llmData.line_items",
		"extractedData.llmData.items",
		"extractedData.llmData.invoice.value.lineItems",
		"extractedData.llmData.invoice.value.items",
		"extractedData.invoice.line_items",
		"extractedData.items",
		"extractedData.lineItems.value.items",
		"extractedData.lineItems.items",
	}

	itemDescriptionAliases = []string{"description", "name", "title"}
	itemQuantityAliases    = []string{"quantity", "qty"}
	itemUnitPriceAliases   = []string{"unitPrice", "price", "rate", "unit_price"}
	itemTotalAliases       = []string{"totalPrice", "amount", "total"}
	// vatAmount covers the second upstream producer's locale-specific naming
	itemTaxAliases      = []string{"tax", "tax_amount", "vatAmount", "vat_amount"}
	itemSKUAliases      = []string{"sku", "item_code", "itemCode"}
	itemCategoryAliases = []string{"category", "Sachkonto", "sachkonto"}
	itemIndexAliases    = []string{"srNo", "sr_no"}

	paymentListKeys        = []string{"payments", "payment", "transactions"}
	paymentDetailPath      = "extractedData.llmData.payment.value"
	paymentAmountAliases   = []string{"amount", "paid_amount", "amountPaid", "discountedTotal"}
	paymentPaidAtAliases   = []string{"paid_at", "date", "paidAt"}
	paymentMethodAliases   = []string{"method", "payment_method", "type"}
	paymentRefAliases      = []string{"reference", "txn_id", "referenceId", "bankAccountNumber"}
	llmInvoicePath         = "extractedData.llmData.invoice.value"
	llmSummaryPath         = "extractedData.llmData.summary.value"
	llmDueDatePath         = "extractedData.llmData.payment.value.dueDate"
	llmVendorRefFallbackID = "extractedData.llmData.vendor.id"
)

// Normalizer turns one raw extraction record into a persisted invoice
// aggregate: entity resolution for vendor/customer/categories, header
// and child extraction, then the transactional upsert.
type Normalizer struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	vendors    vendordomain.Service
	customers  customerdomain.Service
	categories categorydomain.Service
	invoices   invoicedomain.Service
}

type NormalizerParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	Vendors    vendordomain.Service
	Customers  customerdomain.Service
	Categories categorydomain.Service
	Invoices   invoicedomain.Service
}

func NewNormalizer(p NormalizerParam) *Normalizer {
	return &Normalizer{
		db:         p.DB,
		log:        p.Log.Named("ingest.normalizer"),
		cfg:        p.Cfg,
		vendors:    p.Vendors,
		customers:  p.Customers,
		categories: p.Categories,
		invoices:   p.Invoices,
	}
}

// Ingest normalizes and persists one record.
func (n *Normalizer) Ingest(ctx context.Context, rec extract.Record) (*invoicedomain.Invoice, error) {
	var (
		vendorID   *snowflake.ID
		customerID *snowflake.ID
	)

	if attrs := extractVendor(rec); attrs != nil {
		vendor, err := n.vendors.Resolve(ctx, n.db, *attrs)
		if err != nil {
			return nil, fmt.Errorf("resolve vendor: %w", err)
		}
		if vendor != nil {
			vendorID = &vendor.ID
		}
	}

	if attrs := extractCustomer(rec); attrs != nil {
		customer, err := n.customers.Resolve(ctx, n.db, *attrs)
		if err != nil {
			return nil, fmt.Errorf("resolve customer: %w", err)
		}
		if customer != nil {
			customerID = &customer.ID
		}
	}

	header := n.extractHeader(rec)
	header.VendorID = vendorID
	header.CustomerID = customerID

	items, err := n.extractLineItems(ctx, rec)
	if err != nil {
		return nil, err
	}

	invoice, err := n.invoices.Upsert(ctx, invoicedomain.Aggregate{
		Header:    header,
		LineItems: items,
		Payments:  extractPayments(rec),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert invoice: %w", err)
	}
	return invoice, nil
}

// extractVendor probes the known vendor locations in priority order and
// stops at the first bundle carrying a usable name.
func extractVendor(rec extract.Record) *vendordomain.Attributes {
	// 1) direct top-level objects under common aliases
	for _, key := range vendorDirectKeys {
		direct := extract.AsMap(rec[key])
		if direct == nil {
			continue
		}
		name := extract.AsString(extract.FirstPresent(direct, "name", "vendorName", "company"))
		if name == nil {
			continue
		}
		return &vendordomain.Attributes{
			VendorRef: extract.AsString(extract.FirstPresent(direct, "vendor_ref", "id", "vendor_id")),
			Name:      name,
			Address:   extract.Unwrap(direct["address"]),
			Email:     extract.AsString(extract.Unwrap(direct["email"])),
			Phone:     extract.AsString(extract.Unwrap(direct["phone"])),
			TaxNumber: extract.AsString(extract.FirstPresent(direct, "tax_number", "tax_id")),
		}
	}

	// 2) structured extraction path of the primary upstream producer
	for _, path := range vendorNestedPaths {
		v := extract.AsMap(extract.ByPath(rec, path))
		if v == nil {
			continue
		}
		name := extract.AsString(extract.FirstPresent(v, "vendorName", "vendor_name"))
		if name == nil {
			continue
		}
		ref := extract.AsString(extract.Unwrap(v["id"]))
		if ref == nil {
			ref = extract.AsString(extract.ByPath(rec, llmVendorRefFallbackID))
		}
		return &vendordomain.Attributes{
			VendorRef: ref,
			Name:      name,
			Address:   extract.FirstPresent(v, "vendorAddress", "address"),
			Email:     extract.AsString(extract.Unwrap(v["email"])),
			Phone:     extract.AsString(extract.Unwrap(v["phone"])),
			TaxNumber: extract.AsString(extract.FirstPresent(v, "vendorTaxId", "tax_id")),
		}
	}

	// 3) alternate nested paths
	for _, path := range vendorLikelyPaths {
		likely := extract.AsMap(extract.ByPath(rec, path))
		if likely == nil {
			continue
		}
		name := extract.AsString(extract.FirstPresent(likely, "name", "vendorName"))
		if name == nil {
			continue
		}
		return &vendordomain.Attributes{
			VendorRef: extract.AsString(extract.FirstPresent(likely, "id", "vendor_id")),
			Name:      name,
			Address:   extract.Unwrap(likely["address"]),
			Email:     extract.AsString(extract.Unwrap(likely["email"])),
			Phone:     extract.AsString(extract.Unwrap(likely["phone"])),
		}
	}

	// 4) last resort: a bare seller name is the whole identity
	if name := extract.AsString(extract.FirstPresent(rec, vendorNameFallback...)); name != nil {
		return &vendordomain.Attributes{Name: name}
	}

	return nil
}

func extractCustomer(rec extract.Record) *customerdomain.Attributes {
	for _, key := range customerDirectKeys {
		direct := extract.AsMap(rec[key])
		if direct == nil {
			continue
		}
		name := extract.AsString(extract.FirstPresent(direct, "name", "customer_name"))
		if name == nil {
			continue
		}
		return &customerdomain.Attributes{
			CustomerRef: extract.AsString(extract.FirstPresent(direct, "customer_ref", "id")),
			Name:        name,
			Address:     extract.Unwrap(direct["address"]),
			Email:       extract.AsString(extract.Unwrap(direct["email"])),
			Phone:       extract.AsString(extract.Unwrap(direct["phone"])),
		}
	}

	for _, path := range customerNestedPaths {
		c := extract.AsMap(extract.ByPath(rec, path))
		if c == nil {
			continue
		}
		name := extract.AsString(extract.FirstPresent(c, "customerName", "name", "clientName"))
		if name == nil {
			continue
		}
		return &customerdomain.Attributes{
			CustomerRef: extract.AsString(extract.Unwrap(c["id"])),
			Name:        name,
			Address:     extract.FirstPresent(c, "customerAddress", "address"),
			Email:       extract.AsString(extract.Unwrap(c["email"])),
			Phone:       extract.AsString(extract.Unwrap(c["phone"])),
		}
	}

	return nil
}

func (n *Normalizer) extractHeader(rec extract.Record) invoicedomain.Header {
	invoiceData := extract.AsMap(extract.ByPath(rec, llmInvoicePath))
	summaryData := extract.AsMap(extract.ByPath(rec, llmSummaryPath))

	number := extract.AsString(extract.Unwrap(invoiceData["invoiceId"]))
	if number == nil {
		number = extract.AsString(extract.FirstPresent(rec, invoiceNumberAliases...))
	}

	issueRaw := extract.FirstPresent(invoiceData, "invoiceDate", "issueDate")
	if issueRaw == nil {
		issueRaw = extract.FirstPresent(rec, issueDateAliases...)
	}

	dueRaw := extract.Unwrap(extract.ByPath(rec, llmDueDatePath))
	if dueRaw == nil {
		dueRaw = extract.FirstPresent(rec, dueDateAliases...)
	}

	currency := extract.AsString(extract.Unwrap(summaryData["currencySymbol"]))
	if currency == nil {
		currency = extract.AsString(extract.FirstPresent(rec, currencyAliases...))
	}

	status := extract.AsString(rec["status"])

	header := invoicedomain.Header{
		InvoiceNumber: number,
		InvoiceRef:    extract.AsString(extract.FirstPresent(rec, invoiceRefAliases...)),
		IssueDate:     coerce.Date(issueRaw),
		DueDate:       coerce.Date(dueRaw),
		Currency:      n.cfg.DefaultCurrency,
		Subtotal:      firstDecimal(summaryData, "subTotal", invoiceData, "subtotal", rec, subtotalAliases),
		Tax:           firstDecimal(summaryData, "totalTax", invoiceData, "tax", rec, taxAliases),
		Total:         firstDecimal(summaryData, "invoiceTotal", invoiceData, "total", rec, totalAliases),
		Status:        invoicedomain.StatusProcessed,
		Notes:         extract.AsString(extract.Unwrap(rec["notes"])),
		Raw:           marshalRaw(rec),
	}
	if currency != nil {
		header.Currency = *currency
	}
	if status != nil {
		header.Status = *status
	}
	return header
}

func (n *Normalizer) extractLineItems(ctx context.Context, rec extract.Record) ([]invoicedomain.LineItem, error) {
	raw := extract.FirstArray(rec, lineItemDirectKeys...)
	if raw == nil {
		raw = extract.FirstArray(rec, lineItemNestedPaths...)
	}

	items := make([]invoicedomain.LineItem, 0, len(raw))
	for i, entry := range raw {
		it := extract.AsMap(entry)
		if it == nil {
			continue
		}

		desc := extract.AsString(extract.FirstPresent(it, itemDescriptionAliases...))
		// quantity defaults to 1 only when no alias is present at all; a
		// present but unparseable quantity stays nil
		qtyRaw := extract.FirstPresent(it, itemQuantityAliases...)
		qty := coerce.Decimal(qtyRaw)
		if qty == nil && qtyRaw == nil {
			one := decimal.NewFromInt(1)
			qty = &one
		}
		unitPrice := coerce.Decimal(extract.FirstPresent(it, itemUnitPriceAliases...))
		explicitTotal := coerce.Decimal(extract.FirstPresent(it, itemTotalAliases...))

		// explicit total wins; quantity x unit price is the fallback
		amount := explicitTotal
		if amount == nil && qty != nil && unitPrice != nil {
			product := qty.Mul(*unitPrice)
			amount = &product
		}

		// an item with neither description nor amount carries no information
		if desc == nil && amount == nil {
			continue
		}

		item := invoicedomain.LineItem{
			LineIndex:   i,
			Description: desc,
			SKU:         extract.AsString(extract.FirstPresent(it, itemSKUAliases...)),
			Quantity:    qty,
			UnitPrice:   unitPrice,
			TaxAmount:   coerce.Decimal(extract.FirstPresent(it, itemTaxAliases...)),
			Amount:      amount,
			Metadata:    marshalRaw(it),
		}
		if idx := coerce.Decimal(extract.FirstPresent(it, itemIndexAliases...)); idx != nil {
			item.LineIndex = int(idx.IntPart())
		}

		if label := extract.FirstPresent(it, itemCategoryAliases...); label != nil {
			category, err := n.categories.Resolve(ctx, n.db, stringify(label))
			if err != nil {
				return nil, fmt.Errorf("resolve category: %w", err)
			}
			if category != nil {
				item.CategoryID = &category.ID
			}
		}

		items = append(items, item)
	}
	return items, nil
}

func extractPayments(rec extract.Record) []invoicedomain.Payment {
	var candidates []any
	for _, key := range paymentListKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if arr, isArr := v.([]any); isArr {
			candidates = arr
		} else {
			candidates = []any{v}
		}
		break
	}
	if candidates == nil {
		// a single embedded payment-detail object counts as a one-element list
		if detail := extract.AsMap(extract.ByPath(rec, paymentDetailPath)); detail != nil {
			candidates = []any{detail}
		}
	}

	var payments []invoicedomain.Payment
	for _, entry := range candidates {
		p := extract.AsMap(entry)
		if p == nil {
			continue
		}
		// a payment with no resolvable amount carries no information
		amount := coerce.Decimal(extract.FirstPresent(p, paymentAmountAliases...))
		if amount == nil {
			continue
		}
		payments = append(payments, invoicedomain.Payment{
			Amount:    *amount,
			PaidAt:    coerce.Date(extract.FirstPresent(p, paymentPaidAtAliases...)),
			Method:    extract.AsString(extract.FirstPresent(p, paymentMethodAliases...)),
			Reference: extract.AsString(extract.FirstPresent(p, paymentRefAliases...)),
			Raw:       marshalRaw(p),
		})
	}
	return payments
}

// firstDecimal probes summary, then structured invoice data, then the
// record's top-level aliases.
func firstDecimal(summary map[string]any, summaryKey string, invoiceData map[string]any, invoiceKey string, rec extract.Record, aliases []string) *decimal.Decimal {
	if d := coerce.Decimal(extract.Unwrap(summary[summaryKey])); d != nil {
		return d
	}
	if d := coerce.Decimal(extract.Unwrap(invoiceData[invoiceKey])); d != nil {
		return d
	}
	return coerce.Decimal(extract.FirstPresent(rec, aliases...))
}

func marshalRaw(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
