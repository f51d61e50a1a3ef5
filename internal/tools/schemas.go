package tools

// JSON Schemas (draft 2020-12) for tool arguments.
const (
	schemaAddCustomer = `{
  "type": "object",
  "properties": {
    "name":  {"type": "string", "minLength": 1, "description": "Full name of the customer"},
    "email": {"type": "string", "minLength": 3, "description": "Unique email address"}
  },
  "required": ["name", "email"],
  "additionalProperties": false
}`

	schemaCustomerID = `{
  "type": "object",
  "properties": {
    "customer_id": {"type": "integer", "minimum": 1}
  },
  "required": ["customer_id"],
  "additionalProperties": false
}`

	schemaEmail = `{
  "type": "object",
  "properties": {
    "email": {"type": "string", "minLength": 1}
  },
  "required": ["email"],
  "additionalProperties": false
}`

	schemaLogMessage = `{
  "type": "object",
  "properties": {
    "customer_id": {"type": "integer", "minimum": 1},
    "direction":   {"type": "string", "description": "inbound or outbound"},
    "content":     {"type": "string", "minLength": 1}
  },
  "required": ["customer_id", "direction", "content"],
  "additionalProperties": false
}`

	schemaNone = `{
  "type": "object",
  "properties": {},
  "additionalProperties": false
}`

	schemaThreshold = `{
  "type": "object",
  "properties": {
    "threshold_iso": {"type": "string", "minLength": 1, "description": "ISO-8601 date-time, e.g. 2024-01-01T00:00:00"}
  },
  "required": ["threshold_iso"],
  "additionalProperties": false
}`

	schemaQueryTable = `{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "customers or messages"},
    "sql":   {"type": "string", "minLength": 1, "description": "A single SELECT statement"}
  },
  "required": ["table", "sql"],
  "additionalProperties": false
}`
)
