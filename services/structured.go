package services

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kusumaprabha/UltraShip/models"
)

// fieldPatterns are the per-field regex lists for the degraded extraction
// path, tried in order with first match winning. They target the label
// conventions of rate confirmations, BOLs, and carrier invoices.
var fieldPatterns = map[string][]*regexp.Regexp{
	"shipment_id": {
		regexp.MustCompile(`(?im)(?:BOL|PRO|REF(?:ERENCE)?|SHIP(?:MENT)?|LOAD|BOOKING)\s*[#:;]*\s*([A-Z0-9][-A-Z0-9]{3,20})`),
		regexp.MustCompile(`(?im)(?:BILL OF LADING|B/L)\s*[#:;]*\s*([A-Z0-9][-A-Z0-9]{3,20})`),
		regexp.MustCompile(`(\d{6,20})`),
	},
	"shipper": {
		regexp.MustCompile(`(?im)(?:SHIPPER|SENDER)\s*[:\n]\s*([A-Za-z0-9\s&.,]+?)(?:\n|$|Tel|Fax|Phone)`),
		regexp.MustCompile(`(?im)From:\s*([A-Za-z0-9\s&.,]+?)(?:\n|$)`),
	},
	"consignee": {
		regexp.MustCompile(`(?im)(?:CONSIGNEE|RECEIVER|DELIVER TO)\s*[:\n]\s*([A-Za-z0-9\s&.,]+?)(?:\n|$|Tel|Fax|Phone)`),
		regexp.MustCompile(`(?im)To:\s*([A-Za-z0-9\s&.,]+?)(?:\n|$)`),
	},
	"pickup_datetime": {
		regexp.MustCompile(`(?im)(?:PICKUP|PU|PICK UP)\s*(?:DATE|TIME|DT)?\s*[:\n]\s*(\d{4}-\d{2}-\d{2}(?:\s+\d{1,2}:\d{2})?|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:\s+\d{1,2}:\d{2}\s*(?:AM|PM)?)?)`),
		regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\s+\d{1,2}:\d{2}\s*(?:AM|PM)?)`),
	},
	"delivery_datetime": {
		regexp.MustCompile(`(?im)(?:DELIVER(?:Y)?|DEL|DROP(?: OFF)?)\s*(?:DATE|TIME|DT)?\s*[:\n]\s*(\d{4}-\d{2}-\d{2}(?:\s+\d{1,2}:\d{2})?|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:\s+\d{1,2}:\d{2}\s*(?:AM|PM)?)?)`),
	},
	"equipment_type": {
		regexp.MustCompile(`(?im)(?:EQUIP(?:MENT)?|TRAILER|CONTAINER)\s*(?:TYPE)?\s*[:\n]\s*([A-Za-z0-9\s\-/']+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)(53'?\s*(?:FT|FOOT)?\s*(?:VAN|REEFER|DRY)|40'?\s*(?:FT|FOOT)?\s*(?:CONTAINER|HC)|REEFER|FLATBED)`),
	},
	"mode": {
		regexp.MustCompile(`(?im)(?:MODE|SERVICE)\s*[:\n]\s*([A-Za-z]+)`),
		regexp.MustCompile(`(?i)\b(TL|FTL|LTL|TRUCK|RAIL|OCEAN|AIR|GROUND|EXPEDITE)\b`),
	},
	"rate": {
		regexp.MustCompile(`(?im)(?:RATE|CHARGE|AMOUNT|TOTAL)\s*[:$]?\s*\$?\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
		regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`),
		regexp.MustCompile(`(\d+\.\d{2})\s*(?:USD|CAD)`),
	},
	"currency": {
		regexp.MustCompile(`(?im)CURRENCY\s*[:\n]\s*([A-Z]{3})`),
		regexp.MustCompile(`\b(USD|CAD|EUR|GBP|MXN)\b`),
	},
	"weight": {
		regexp.MustCompile(`(?im)(?:WEIGHT|WT|GROSS|NET)\s*[:\n]\s*(\d{1,5}(?:,\d{3})*(?:\.\d)?)\s*(?:LBS|LB|POUNDS|KG|KGS)`),
		regexp.MustCompile(`(?i)(\d{1,5}(?:,\d{3})*(?:\.\d)?)\s*(?:LBS|LB|POUNDS|KG|KGS)`),
	},
	"carrier_name": {
		regexp.MustCompile(`(?im)(?:CARRIER NAME|CARRIER|TRUCKING CO|TRANSPORT)\s*[:\n]\s*([A-Za-z0-9\s&.,]+?)(?:\n|$|Tel|Fax|Phone|MC|DOT)`),
	},
}

// jsonObjectPattern pulls the first JSON object out of a generator response
// that may wrap it in prose or a fenced code block.
var (
	jsonObjectPattern   = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
	nonNumericPattern   = regexp.MustCompile(`[^0-9.]`)
	currencyCodePattern = regexp.MustCompile(`[A-Z]{3}`)
)

// StructuredExtractor pulls the eleven shipment fields out of a document.
// With a generator it asks for strict JSON and tolerantly recovers the
// object from the response; without one, or when the generator yields
// nothing usable, it runs the per-field regex lists.
type StructuredExtractor struct {
	generator       models.Generator
	generateTimeout time.Duration
}

// StructuredOption configures a StructuredExtractor.
type StructuredOption func(*StructuredExtractor)

// WithExtractionGenerator supplies the optional LLM extraction path.
func WithExtractionGenerator(gen models.Generator) StructuredOption {
	return func(s *StructuredExtractor) {
		s.generator = gen
	}
}

// WithExtractionTimeout overrides the generation deadline.
func WithExtractionTimeout(d time.Duration) StructuredOption {
	return func(s *StructuredExtractor) {
		s.generateTimeout = d
	}
}

// NewStructuredExtractor builds an extractor; regex-only unless a generator
// is supplied.
func NewStructuredExtractor(opts ...StructuredOption) *StructuredExtractor {
	s := &StructuredExtractor{generateTimeout: DefaultGenerateTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns the shipment fields found in text; absent fields stay nil.
func (s *StructuredExtractor) Extract(ctx context.Context, text string) models.ShipmentFields {
	if s.generator != nil {
		fields, ok := s.extractWithLLM(ctx, text)
		if ok {
			return fields
		}
		log.Printf("EXTRACTOR: LLM extraction yielded nothing, falling back to regex")
	}
	return s.extractWithRegex(text)
}

// extractWithLLM prompts the generator for strict JSON and reports ok only
// when at least one field came back non-null.
func (s *StructuredExtractor) extractWithLLM(ctx context.Context, text string) (models.ShipmentFields, bool) {
	gctx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	response, err := s.generator.Generate(gctx, BuildExtractionPrompt(text))
	if err != nil {
		log.Printf("EXTRACTOR: generation failed: %v", err)
		return models.ShipmentFields{}, false
	}

	raw := jsonObjectPattern.FindString(response)
	if raw == "" {
		return models.ShipmentFields{}, false
	}
	raw = trailingCommaObject.ReplaceAllString(raw, "}")
	raw = trailingCommaArray.ReplaceAllString(raw, "]")

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("EXTRACTOR: could not parse generator JSON: %v", err)
		return models.ShipmentFields{}, false
	}
	fields := cleanFields(data)
	return fields, anyFieldSet(fields)
}

// extractWithRegex runs the per-field pattern lists, first match wins.
func (s *StructuredExtractor) extractWithRegex(text string) models.ShipmentFields {
	data := make(map[string]any, len(fieldPatterns))
	for field, patterns := range fieldPatterns {
		for _, pattern := range patterns {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value := m[0]
			if len(m) > 1 && m[1] != "" {
				value = m[1]
			}
			data[field] = strings.Trim(strings.Join(strings.Fields(value), " "), ":,;- ")
			break
		}
	}
	return cleanFields(data)
}

// cleanFields normalizes raw extracted values into typed ShipmentFields:
// collapsed whitespace for names, floats for rate and weight, a bare
// three-letter code for currency.
func cleanFields(data map[string]any) models.ShipmentFields {
	fields := models.ShipmentFields{
		ShipmentID:       cleanString(data["shipment_id"]),
		Shipper:          cleanString(data["shipper"]),
		Consignee:        cleanString(data["consignee"]),
		PickupDatetime:   cleanString(data["pickup_datetime"]),
		DeliveryDatetime: cleanString(data["delivery_datetime"]),
		EquipmentType:    cleanString(data["equipment_type"]),
		Mode:             cleanString(data["mode"]),
		Rate:             cleanNumber(data["rate"]),
		Weight:           cleanNumber(data["weight"]),
		CarrierName:      cleanString(data["carrier_name"]),
	}
	if cur := cleanString(data["currency"]); cur != nil {
		if code := currencyCodePattern.FindString(strings.ToUpper(*cur)); code != "" {
			fields.Currency = &code
		}
	}
	return fields
}

func cleanString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.Trim(strings.Join(strings.Fields(s), " "), ",:; ")
	if s == "" {
		return nil
	}
	return &s
}

// cleanNumber accepts a JSON number or a string like "$2,500.00" and
// reduces it to a float.
func cleanNumber(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		cleaned := nonNumericPattern.ReplaceAllString(n, "")
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func anyFieldSet(f models.ShipmentFields) bool {
	return f.ShipmentID != nil || f.Shipper != nil || f.Consignee != nil ||
		f.PickupDatetime != nil || f.DeliveryDatetime != nil || f.EquipmentType != nil ||
		f.Mode != nil || f.Rate != nil || f.Currency != nil || f.Weight != nil ||
		f.CarrierName != nil
}
