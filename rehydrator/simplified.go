package rehydrator

import (
	"errors"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Wire-format keys and strategy tags of the simplified record representation.
// A simplified record is a plain mapping; these keys carry its bookkeeping.
const (
	KeyStrategy          = "strategy"
	KeyClassname         = "classname"
	KeyMetadataClassname = "metadata_classname"
	KeyCollection        = "collection"
	KeyID                = "id"
	KeyValue             = "value"
	KeyTimezone          = "timezone"

	StrategyDatetime  = "datetime"
	StrategyIPNetwork = "ip-network"
	StrategyObjectRef = "object-ref"

	keyUserID    = "user_id"
	keyProjectID = "project_id"
)

var jsonAPI = jsoniter.ConfigFastest

// BuildDocumentFromJSON decodes a JSON payload into the generic Document form
// that the engine rehydrates. It fails on payloads that are not valid JSON
// objects.
func BuildDocumentFromJSON(payloadJSON []byte) (Document, error) {
	var doc Document

	unmarshalErr := jsonAPI.Unmarshal(payloadJSON, &doc)
	if unmarshalErr != nil {
		return nil, errors.Join(ErrInvalidPayloadJSON, unmarshalErr)
	}

	return doc, nil
}

// MarshalDocumentToJSON encodes a Document back into its JSON payload form,
// the inverse of BuildDocumentFromJSON. Store engines use it on their save
// path.
func MarshalDocumentToJSON(doc Document) ([]byte, error) {
	payloadJSON, marshalErr := jsonAPI.Marshal(doc)
	if marshalErr != nil {
		return nil, errors.Join(ErrInvalidPayloadJSON, marshalErr)
	}

	return payloadJSON, nil
}

func classnameOf(doc Document) string {
	if name, ok := doc[KeyClassname].(string); ok && name != "" {
		return name
	}

	if name, ok := doc[KeyMetadataClassname].(string); ok && name != "" {
		return name
	}

	return ""
}

func collectionOf(doc Document) string {
	name, _ := doc[KeyCollection].(string)

	return name
}

func strategyOf(doc Document) string {
	name, _ := doc[KeyStrategy].(string)

	return name
}

func isIndirection(doc Document) bool {
	return strategyOf(doc) == StrategyObjectRef
}

func hasClassnameKey(doc Document) bool {
	if _, ok := doc[KeyClassname]; ok {
		return true
	}

	_, ok := doc[KeyMetadataClassname]

	return ok
}

// recordID extracts the record id of a simplified object and normalizes it to
// its string form. Numeric ids are stringified without an exponent.
func recordID(doc Document) (string, bool) {
	raw, ok := doc[KeyID]
	if !ok {
		return "", false
	}

	switch id := raw.(type) {
	case string:
		if id == "" {
			return "", false
		}

		return id, true
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10), true
		}

		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

// isBookkeepingKey reports whether a record key belongs to the wire format
// rather than to the domain object. The record id is not listed here, it
// doubles as an ordinary field.
func isBookkeepingKey(name string) bool {
	switch name {
	case KeyStrategy, KeyClassname, KeyMetadataClassname, KeyCollection:
		return true
	default:
		return false
	}
}
