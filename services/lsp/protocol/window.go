// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package protocol

import "encoding/json"

// =============================================================================
// WINDOW
// =============================================================================

// MessageType is the severity of a window message.
type MessageType int

const (
	MessageError   MessageType = 1
	MessageWarning MessageType = 2
	MessageInfo    MessageType = 3
	MessageLog     MessageType = 4
	MessageDebug   MessageType = 5
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageError:
		return "error"
	case MessageWarning:
		return "warning"
	case MessageInfo:
		return "info"
	case MessageLog:
		return "log"
	case MessageDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// LogMessageParams is sent with window/logMessage.
type LogMessageParams struct {
	Type    MessageType `json:"type" validate:"required"`
	Message string      `json:"message"`
}

// ShowMessageParams is sent with window/showMessage.
type ShowMessageParams struct {
	Type    MessageType `json:"type" validate:"required"`
	Message string      `json:"message"`
}

// MessageActionItem is one choice offered by window/showMessageRequest.
type MessageActionItem struct {
	Title string `json:"title"`
}

// ShowMessageRequestParams asks the user to pick an action.
type ShowMessageRequestParams struct {
	Type    MessageType         `json:"type" validate:"required"`
	Message string              `json:"message"`
	Actions []MessageActionItem `json:"actions,omitempty"`
}

// ShowDocumentParams asks the client to display a document.
type ShowDocumentParams struct {
	// URI is the document to show.
	URI string `json:"uri" validate:"required"`

	// External requests an external program, like a browser.
	External bool `json:"external,omitempty"`

	// TakeFocus moves focus to the document.
	TakeFocus bool `json:"takeFocus,omitempty"`

	// Selection is an optional range to select.
	Selection *Range `json:"selection,omitempty"`
}

// ShowDocumentResult reports whether the document was shown.
type ShowDocumentResult struct {
	Success bool `json:"success"`
}

// WorkDoneProgressCreateParams asks the client to create a progress token.
type WorkDoneProgressCreateParams struct {
	Token ProgressToken `json:"token"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *WorkDoneProgressCreateParams) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "token"); err != nil {
		return err
	}
	type plain WorkDoneProgressCreateParams
	return json.Unmarshal(data, (*plain)(p))
}

// =============================================================================
// WORKSPACE REQUESTS FROM THE SERVER
// =============================================================================

// ConfigurationItem selects one configuration section.
type ConfigurationItem struct {
	ScopeURI string `json:"scopeUri,omitempty"`
	Section  string `json:"section,omitempty"`
}

// ConfigurationParams is sent with workspace/configuration. The response
// holds one value per item, in order.
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items" validate:"required"`
}

// ApplyWorkspaceEditParams asks the client to apply an edit.
type ApplyWorkspaceEditParams struct {
	// Label is shown in the undo stack.
	Label string `json:"label,omitempty"`

	// Edit is the edit to apply.
	Edit WorkspaceEdit `json:"edit"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ApplyWorkspaceEditParams) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "edit"); err != nil {
		return err
	}
	type plain ApplyWorkspaceEditParams
	return json.Unmarshal(data, (*plain)(p))
}

// ApplyWorkspaceEditResult reports the outcome of workspace/applyEdit.
type ApplyWorkspaceEditResult struct {
	Applied       bool   `json:"applied"`
	FailureReason string `json:"failureReason,omitempty"`
	FailedChange  *int   `json:"failedChange,omitempty"`
}

// Registration is one dynamic capability registration.
type Registration struct {
	ID              string `json:"id" validate:"required"`
	Method          string `json:"method" validate:"required"`
	RegisterOptions LSPAny `json:"registerOptions,omitempty"`
}

// RegistrationParams is sent with client/registerCapability.
type RegistrationParams struct {
	Registrations []Registration `json:"registrations" validate:"required,dive"`
}

// Unregistration removes one dynamic registration.
type Unregistration struct {
	ID     string `json:"id" validate:"required"`
	Method string `json:"method" validate:"required"`
}

// UnregistrationParams is sent with client/unregisterCapability. The
// misspelled field name is part of the protocol.
type UnregistrationParams struct {
	Unregisterations []Unregistration `json:"unregisterations" validate:"required,dive"`
}

// =============================================================================
// DIAGNOSTICS PUSH
// =============================================================================

// PublishDiagnosticsParams is sent with textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	// URI is the document the diagnostics belong to.
	URI DocumentURI `json:"uri" validate:"required"`

	// Version is the document version the diagnostics were computed for.
	Version *int `json:"version,omitempty"`

	// Diagnostics replaces all previous diagnostics for the document.
	Diagnostics []Diagnostic `json:"diagnostics" validate:"required"`
}
