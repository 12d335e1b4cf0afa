package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Payload schemas for the inbound catalog. Validation happens before
// decode so a known type with a malformed payload is dropped instead of
// half-applied (unknown fields are allowed for forward compatibility).
var payloadSchemas = map[string]string{
	TypeAuthQR: `{
		"type": "object",
		"required": ["code"],
		"properties": {"code": {"type": "string"}}
	}`,
	TypeAuthCodeNeeded: `{
		"type": "object",
		"required": ["phone_hint"],
		"properties": {"phone_hint": {"type": "string"}}
	}`,
	TypeAuthPhoneNeeded: `{
		"type": "object"
	}`,
	TypeAuthSuccess: `{
		"type": "object",
		"required": ["user"],
		"properties": {
			"user": {"type": "string"},
			"phone": {"type": "string"}
		}
	}`,
	TypeChatsList: `{
		"type": "object",
		"required": ["chats"],
		"properties": {
			"chats": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "name"],
					"properties": {
						"id": {"type": "string"},
						"name": {"type": "string"},
						"unread": {"type": "integer", "minimum": 0},
						"last_message": {"type": "string"},
						"last_time": {"type": "integer"},
						"is_group": {"type": "boolean"}
					}
				}
			}
		}
	}`,
	TypeChatMessages: `{
		"type": "object",
		"required": ["messages"],
		"properties": {
			"messages": {"type": "array", "items": {"$ref": "message.json"}}
		}
	}`,
	TypeMessageNew: `{"$ref": "message.json"}`,
	TypeStatus: `{
		"type": "object",
		"required": ["status"],
		"properties": {
			"status": {"enum": ["disconnected", "connecting", "auth_needed", "connected"]}
		}
	}`,
}

// messageSchema is shared between message.new and chat.messages batches.
const messageSchema = `{
	"type": "object",
	"required": ["id", "chat_id"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"chat_id": {"type": "string", "minLength": 1},
		"from": {"type": "string"},
		"from_me": {"type": "boolean"},
		"text": {"type": "string"},
		"timestamp": {"type": "integer"},
		"image_path": {"type": "string"}
	}
}`

var compiledSchemas = compilePayloadSchemas()

func compilePayloadSchemas() map[string]*jsonschema.Schema {
	c := jsonschema.NewCompiler()

	addResource := func(name, text string) {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
		if err != nil {
			panic(fmt.Sprintf("protocol: parse schema %s: %v", name, err))
		}
		if err := c.AddResource(name, doc); err != nil {
			panic(fmt.Sprintf("protocol: add schema %s: %v", name, err))
		}
	}

	addResource("message.json", messageSchema)
	for msgType, text := range payloadSchemas {
		addResource(msgType+".json", text)
	}

	out := make(map[string]*jsonschema.Schema, len(payloadSchemas))
	for msgType := range payloadSchemas {
		sch, err := c.Compile(msgType + ".json")
		if err != nil {
			panic(fmt.Sprintf("protocol: compile schema %s: %v", msgType, err))
		}
		out[msgType] = sch
	}
	return out
}

// ValidatePayload checks an envelope's data against the schema declared
// for its type. Types without a registered schema pass (the dispatcher
// decides what to do with unknown types). A missing payload is validated
// as an empty object.
func ValidatePayload(env Envelope) error {
	sch, ok := compiledSchemas[env.Type]
	if !ok {
		return nil
	}

	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s payload: %w", env.Type, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return nil
}
