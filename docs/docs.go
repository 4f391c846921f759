// Package docs registers the OpenAPI description served at /api/docs.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/google/login": {
            "get": {"tags": ["auth"], "summary": "Google login URL", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.GoogleLoginResponse"}}}}
        },
        "/auth/google/callback": {
            "get": {"tags": ["auth"], "summary": "Google OAuth callback", "parameters": [{"type": "string", "name": "code", "in": "query", "required": true}, {"type": "string", "name": "state", "in": "query", "required": true}], "responses": {"302": {"description": "Found"}}}
        },
        "/auth/exchange": {
            "post": {"tags": ["auth"], "summary": "Exchange one-time code", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ExchangeCodeRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}}}}
        },
        "/auth/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AccountResponse"}}}}
        },
        "/accounts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Linked accounts", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AccountsResponse"}}}}
        },
        "/accounts/icloud": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Link iCloud", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LinkICloudRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.AccountResponse"}}}}
        },
        "/accounts/outlook": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Link Outlook", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LinkOutlookRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.AccountResponse"}}}}
        },
        "/accounts/{provider}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Unlink account", "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/friends": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "List friends", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FriendsResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Send friend request", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateFriendRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.FriendRequestResponse"}}}}
        },
        "/friends/incoming": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "List incoming requests", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FriendsResponse"}}}}
        },
        "/friends/sync-pending": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Resolve pending requests", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SyncPendingResponse"}}}}
        },
        "/friends/{id}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Remove friend", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/friends/{id}/accept": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Accept friend request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ConnectionResponse"}}}}
        },
        "/friends/{id}/reject": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Reject friend request", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MessageResponse"}}}}
        },
        "/friends/{id}/calendar": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["friends"], "summary": "Friend availability", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "from", "in": "query"}, {"type": "string", "name": "to", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FriendCalendarResponse"}}}}
        },
        "/calendar/events": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["calendar"], "summary": "Aggregated events", "parameters": [{"type": "string", "name": "from", "in": "query"}, {"type": "string", "name": "to", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EventsResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["calendar"], "summary": "Create event", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateEventRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.EventResponse"}}}}
        },
        "/calendar/events/stream": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["calendar"], "summary": "Stream events", "produces": ["text/event-stream"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AccountEventsMessage"}}}}
        },
        "/ai/draft": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["ai"], "summary": "Draft invitation text", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DraftInvitationRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DraftInvitationResponse"}}}}
        }
    },
    "definitions": {
        "dto.AccountResponse": {"type": "object", "properties": {"provider": {"type": "string"}, "userId": {"type": "string"}, "email": {"type": "string"}, "name": {"type": "string"}, "avatar": {"type": "string"}, "primaryUserId": {"type": "string"}, "createdAt": {"type": "integer"}}},
        "dto.AccountsResponse": {"type": "object", "properties": {"accounts": {"type": "array", "items": {"$ref": "#/definitions/dto.AccountResponse"}}}},
        "dto.AuthResponse": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/dto.AccountResponse"}}},
        "dto.GoogleLoginResponse": {"type": "object", "properties": {"url": {"type": "string"}}},
        "dto.ExchangeCodeRequest": {"type": "object", "required": ["code"], "properties": {"code": {"type": "string"}}},
        "dto.LinkICloudRequest": {"type": "object", "required": ["email", "appPassword"], "properties": {"email": {"type": "string"}, "appPassword": {"type": "string"}}},
        "dto.LinkOutlookRequest": {"type": "object", "required": ["grantId", "email"], "properties": {"grantId": {"type": "string"}, "email": {"type": "string"}}},
        "dto.CreateFriendRequest": {"type": "object", "required": ["friendEmail"], "properties": {"friendEmail": {"type": "string"}}},
        "dto.ConnectionResponse": {"type": "object", "properties": {"id": {"type": "integer"}, "friendEmail": {"type": "string"}, "friendUserId": {"type": "string"}, "friendName": {"type": "string"}, "friendColor": {"type": "string"}, "status": {"type": "string"}, "createdAt": {"type": "integer"}}},
        "dto.FriendRequestResponse": {"type": "object", "properties": {"connection": {"$ref": "#/definitions/dto.ConnectionResponse"}, "friendName": {"type": "string"}, "message": {"type": "string"}}},
        "dto.FriendsResponse": {"type": "object", "properties": {"friends": {"type": "array", "items": {"$ref": "#/definitions/dto.ConnectionResponse"}}}},
        "dto.SyncPendingResponse": {"type": "object", "properties": {"promoted": {"type": "integer"}}},
        "dto.MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "dto.BusyBlock": {"type": "object", "properties": {"start": {"type": "string"}, "end": {"type": "string"}}},
        "dto.FriendCalendarResponse": {"type": "object", "properties": {"friendEmail": {"type": "string"}, "friendName": {"type": "string"}, "busy": {"type": "array", "items": {"$ref": "#/definitions/dto.BusyBlock"}}}},
        "dto.EventResponse": {"type": "object", "properties": {"id": {"type": "string"}, "provider": {"type": "string"}, "accountEmail": {"type": "string"}, "title": {"type": "string"}, "description": {"type": "string"}, "location": {"type": "string"}, "start": {"type": "string"}, "end": {"type": "string"}, "allDay": {"type": "boolean"}}},
        "dto.AccountFetchError": {"type": "object", "properties": {"provider": {"type": "string"}, "accountEmail": {"type": "string"}, "error": {"type": "string"}}},
        "dto.EventsResponse": {"type": "object", "properties": {"events": {"type": "array", "items": {"$ref": "#/definitions/dto.EventResponse"}}, "errors": {"type": "array", "items": {"$ref": "#/definitions/dto.AccountFetchError"}}}},
        "dto.AccountEventsMessage": {"type": "object", "properties": {"provider": {"type": "string"}, "accountEmail": {"type": "string"}, "events": {"type": "array", "items": {"$ref": "#/definitions/dto.EventResponse"}}, "error": {"type": "string"}}},
        "dto.CreateEventRequest": {"type": "object", "required": ["provider", "title", "start", "end"], "properties": {"provider": {"type": "string", "enum": ["google", "icloud", "outlook"]}, "title": {"type": "string"}, "description": {"type": "string"}, "location": {"type": "string"}, "start": {"type": "string"}, "end": {"type": "string"}, "allDay": {"type": "boolean"}, "attendees": {"type": "array", "items": {"type": "string"}}}},
        "dto.DraftInvitationRequest": {"type": "object", "required": ["title"], "properties": {"title": {"type": "string"}, "attendees": {"type": "array", "items": {"type": "string"}}, "notes": {"type": "string"}, "tone": {"type": "string", "enum": ["friendly", "formal", "casual"]}}},
        "dto.DraftInvitationResponse": {"type": "object", "properties": {"draft": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Calendar Service API",
	Description:      "Calendar aggregation and friend sharing",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
