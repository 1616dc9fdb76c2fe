package rehydrator

import (
	"errors"
)

var ErrNilStore = errors.New("nil store client supplied")
var ErrNilRegistry = errors.New("nil type registry supplied")
var ErrNilSession = errors.New("nil session supplied")
var ErrNilEngine = errors.New("nil engine supplied")
var ErrNilReference = errors.New("nil lazy reference supplied")
var ErrEmptyCollectionName = errors.New("empty collection name supplied")
var ErrEmptyRecordID = errors.New("empty record id supplied")

var ErrRecordNotFound = errors.New("record not found")
var ErrFetchingRecordFailed = errors.New("fetching record from store failed")
var ErrSavingRecordFailed = errors.New("saving record to store failed")
var ErrDecodingPayloadFailed = errors.New("decoding record payload failed")
var ErrInvalidPayloadJSON = errors.New("payload json is not valid")

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrNilRedisClient = errors.New("nil redis client supplied")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrEmptyKeyPrefix = errors.New("empty key prefix supplied")
var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrParsingRedisURLFailed = errors.New("parsing redis url failed")
var ErrConnectingToRedisFailed = errors.New("connecting to redis failed")

var ErrEmptyClassname = errors.New("empty classname supplied")
var ErrNilConstructor = errors.New("nil constructor supplied")
var ErrNilFieldSetter = errors.New("nil field setter supplied")
var ErrEmptyFieldName = errors.New("empty field name supplied")
var ErrDuplicateClassname = errors.New("classname is already registered")
var ErrDuplicateCollection = errors.New("collection is already registered")

var ErrNilSequence = errors.New("null value for a sequence field")
var ErrNoFieldSetter = errors.New("no setter registered for field")
var ErrWrongObjectType = errors.New("setter applied to an object of a different type")
var ErrUnassignableFieldValue = errors.New("value is not assignable to the field")
var ErrResolvedWrongType = errors.New("resolved object has an unexpected type")

var ErrInvalidDatetimeValue = errors.New("datetime value is not valid")
var ErrUnknownTimezone = errors.New("timezone is not known")
var ErrInvalidNetworkValue = errors.New("ip network value is not valid")

// Document is a type alias for the generic mapping form a simplified record
// takes after JSON decoding, before rehydration.
type Document = map[string]any

// Sequence is a type alias for the ordered-list form a simplified value takes
// after JSON decoding. Rehydrated sequences keep this shape; typed setters
// convert the elements.
type Sequence = []any

// IdentityKeyString is a type alias for the string-composed identity of one
// domain object within a session, built from its classname and record id.
type IdentityKeyString = string
