// internal/common/validation/payloads.go
package validation

// Day thresholds are whole days >= 1. The record is updated partially, so
// nothing is required; unknown keys (id, userId echoed back by clients) are ignored.
var FollowUpSettingsUpdate = MustCompile("follow_up_settings_update", `{
  "type": "object",
  "properties": {
    "initialResponseDays":  {"type": "integer", "minimum": 1},
    "standardFollowUpDays": {"type": "integer", "minimum": 1},
    "highPriorityDays":     {"type": "integer", "minimum": 1},
    "mediumPriorityDays":   {"type": "integer", "minimum": 1},
    "lowPriorityDays":      {"type": "integer", "minimum": 1},
    "notifyEmail":          {"type": "boolean"},
    "notifyBrowser":        {"type": "boolean"},
    "notifyDailyDigest":    {"type": "boolean"}
  }
}`)

var ProspectCreate = MustCompile("prospect_create", `{
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "name":            {"type": "string", "minLength": 1, "maxLength": 255},
    "email":           {"type": "string", "format": "email"},
    "company":         {"type": ["string", "null"]},
    "position":        {"type": ["string", "null"]},
    "phone":           {"type": ["string", "null"]},
    "status":          {"type": "string", "minLength": 1},
    "category":        {"type": ["string", "null"]},
    "lastContactDate": {"type": ["string", "null"], "format": "date-time"}
  }
}`)

var ProspectUpdate = MustCompile("prospect_update", `{
  "type": "object",
  "properties": {
    "name":            {"type": "string", "minLength": 1, "maxLength": 255},
    "email":           {"type": "string", "format": "email"},
    "company":         {"type": ["string", "null"]},
    "position":        {"type": ["string", "null"]},
    "phone":           {"type": ["string", "null"]},
    "status":          {"type": "string", "minLength": 1},
    "category":        {"type": ["string", "null"]},
    "lastContactDate": {"type": ["string", "null"], "format": "date-time"}
  }
}`)

var FollowUpCreate = MustCompile("follow_up_create", `{
  "type": "object",
  "required": ["prospectId", "dueDate", "type"],
  "properties": {
    "prospectId": {"type": "string", "minLength": 1},
    "dueDate":    {"type": "string", "format": "date-time"},
    "type":       {"type": "string", "enum": ["email", "call", "meeting"]},
    "notes":      {"type": ["string", "null"]},
    "completed":  {"type": "boolean"}
  }
}`)

var FollowUpUpdate = MustCompile("follow_up_update", `{
  "type": "object",
  "properties": {
    "dueDate":   {"type": "string", "format": "date-time"},
    "type":      {"type": "string", "enum": ["email", "call", "meeting"]},
    "notes":     {"type": ["string", "null"]},
    "completed": {"type": "boolean"}
  }
}`)

var EmailRecord = MustCompile("email_record", `{
  "type": "object",
  "required": ["fromEmail", "toEmail", "subject", "date", "messageId"],
  "properties": {
    "fromEmail": {"type": "string", "minLength": 1},
    "toEmail":   {"type": "string", "minLength": 1},
    "subject":   {"type": "string"},
    "content":   {"type": "string"},
    "date":      {"type": "string", "format": "date-time"},
    "messageId": {"type": "string", "minLength": 1},
    "isRead":    {"type": "boolean"}
  }
}`)

var NotificationPermission = MustCompile("notification_permission", `{
  "type": "object",
  "required": ["granted"],
  "properties": {
    "granted": {"type": "boolean"}
  }
}`)
