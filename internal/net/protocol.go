// Package net exposes the game over websockets: one session per
// connection, JSON messages validated against schemas before they
// reach a resolver mailbox.
package net

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const ProtocolVersion = "1.0"

// Client → server message types.
const (
	TypeAuth   = "AUTH"
	TypeDamage = "DAMAGE"
	TypePickup = "PICKUP"
)

// Server → client message types.
const (
	TypeWelcome = "WELCOME"
	TypeResult  = "RESULT"
	TypeNotice  = "NOTICE"
	TypeError   = "ERROR"
)

// BaseMessage routes incoming JSON by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

type AuthMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`
	Password        string `json:"password"`
}

type DamageMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id"`
	AreaID  string `json:"area_id"`
	EnemyID string `json:"enemy_id"`
	Damage  int64  `json:"damage"`
}

type PickupMsg struct {
	Type   string `json:"type"`
	ReqID  string `json:"req_id"`
	AreaID string `json:"area_id"`
	ItemID string `json:"item_id"`
}

type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	UID             string `json:"uid"`
	ServerName      string `json:"server_name"`
}

// ResultMsg carries a resolver result back to the client, keyed by the
// client's own req_id so it can match answers to requests.
type ResultMsg struct {
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	ReqID   string          `json:"req_id"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NoticeMsg is a broadcast world event.
type NoticeMsg struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	AreaID string `json:"area_id"`
	Data   any    `json:"data"`
}

type ErrorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

const authSchema = `{
  "type": "object",
  "required": ["type", "protocol_version", "name"],
  "properties": {
    "type": {"const": "AUTH"},
    "protocol_version": {"type": "string"},
    "name": {"type": "string", "minLength": 1, "maxLength": 32},
    "password": {"type": "string", "maxLength": 128}
  }
}`

const damageSchema = `{
  "type": "object",
  "required": ["type", "req_id", "area_id", "enemy_id", "damage"],
  "properties": {
    "type": {"const": "DAMAGE"},
    "req_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "area_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "enemy_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "damage": {"type": "integer", "minimum": 1}
  }
}`

const pickupSchema = `{
  "type": "object",
  "required": ["type", "req_id", "area_id", "item_id"],
  "properties": {
    "type": {"const": "PICKUP"},
    "req_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "area_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "item_id": {"type": "string", "minLength": 1, "maxLength": 64}
  }
}`

var (
	AuthSchema   = jsonschema.MustCompileString("auth.json", authSchema)
	DamageSchema = jsonschema.MustCompileString("damage.json", damageSchema)
	PickupSchema = jsonschema.MustCompileString("pickup.json", pickupSchema)
)

// Validate checks raw JSON against a compiled schema.
func Validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
