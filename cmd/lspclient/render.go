// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/lspconn/services/lsp"
	"github.com/AleutianAI/lspconn/services/lsp/client"
	"github.com/AleutianAI/lspconn/services/lsp/protocol"
)

// Brand palette.
var (
	colorTeal    = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")
)

// styles renders events for one output. The renderer detects whether the
// output supports color, so piped output stays plain.
type styles struct {
	tag     lipgloss.Style
	path    lipgloss.Style
	muted   lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		tag:     r.NewStyle().Bold(true).Foreground(colorTeal),
		path:    r.NewStyle().Underline(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		err:     r.NewStyle().Foreground(colorError),
		warning: r.NewStyle().Foreground(colorWarning),
		info:    r.NewStyle().Foreground(colorTeal),
	}
}

func (s styles) messageType(t protocol.MessageType) lipgloss.Style {
	switch t {
	case protocol.MessageError:
		return s.err
	case protocol.MessageWarning:
		return s.warning
	case protocol.MessageInfo:
		return s.info
	default:
		return s.muted
	}
}

func (s styles) severity(sev protocol.DiagnosticSeverity) lipgloss.Style {
	switch sev {
	case protocol.SeverityError:
		return s.err
	case protocol.SeverityWarning:
		return s.warning
	case protocol.SeverityInformation:
		return s.info
	default:
		return s.muted
	}
}

// renderNotification formats one server notification for display.
func (s styles) renderNotification(n lsp.ServerNotification) string {
	switch n := n.(type) {
	case *lsp.LogMessage:
		return s.line("log", s.messageType(n.Params.Type).Render(n.Params.Type.String()), n.Params.Message)
	case *lsp.ShowMessage:
		return s.line("message", s.messageType(n.Params.Type).Render(n.Params.Type.String()), n.Params.Message)
	case *lsp.PublishDiagnostics:
		return s.renderDiagnostics(n.Params)
	case *lsp.Progress:
		return s.renderProgress(n.Params)
	case *lsp.TelemetryEvent:
		return s.line("telemetry", string(n.Params))
	case *lsp.LogTrace:
		if n.Params.Verbose != "" {
			return s.line("trace", n.Params.Message, s.muted.Render(n.Params.Verbose))
		}
		return s.line("trace", n.Params.Message)
	case *lsp.CancelRequest:
		return s.line("cancel", n.Params.ID.String())
	case *lsp.MalformedNotification:
		return s.line("malformed", n.MethodName, s.err.Render(n.Err.Error()))
	default:
		return s.line("notification", n.Method())
	}
}

func (s styles) renderDiagnostics(p protocol.PublishDiagnosticsParams) string {
	var b strings.Builder
	path := client.URIToPath(p.URI)
	b.WriteString(s.line("diagnostics", s.path.Render(path), fmt.Sprintf("%d", len(p.Diagnostics))))
	for _, d := range p.Diagnostics {
		b.WriteString("\n  ")
		fmt.Fprintf(&b, "%d:%d %s", d.Range.Start.Line+1, d.Range.Start.Character+1, s.severity(d.Severity).Render(d.Severity.String()))
		if d.Source != "" {
			b.WriteString(" " + s.muted.Render(d.Source))
		}
		b.WriteString(" " + d.Message)
	}
	return b.String()
}

func (s styles) renderProgress(p protocol.ProgressParams) string {
	token := tokenString(p.Token)
	wd, err := p.WorkDone()
	if err != nil {
		return s.line("progress", token, string(p.Value))
	}
	parts := []string{token, wd.Kind}
	if wd.Title != "" {
		parts = append(parts, wd.Title)
	}
	if wd.Message != "" {
		parts = append(parts, wd.Message)
	}
	if wd.Percentage != nil {
		parts = append(parts, fmt.Sprintf("%d%%", *wd.Percentage))
	}
	return s.line("progress", parts...)
}

// renderRequest formats a server request before it is answered.
func (s styles) renderRequest(r lsp.ServerRequest) string {
	switch r := r.(type) {
	case *lsp.ShowMessageRequest:
		titles := make([]string, 0, len(r.Params.Actions))
		for _, a := range r.Params.Actions {
			titles = append(titles, a.Title)
		}
		line := s.line("request", s.messageType(r.Params.Type).Render(r.Params.Type.String()), r.Params.Message)
		if len(titles) > 0 {
			line += " " + s.muted.Render("["+strings.Join(titles, " | ")+"]")
		}
		return line
	case *lsp.ShowDocument:
		return s.line("request", r.Method(), s.path.Render(r.Params.URI))
	case *lsp.ApplyEdit:
		return s.line("request", r.Method(), r.Params.Label)
	default:
		return s.line("request", r.Method())
	}
}

func (s styles) line(tag string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return s.tag.Render("["+tag+"]") + " " + strings.Join(nonEmpty, " ")
}

func tokenString(t protocol.ProgressToken) string {
	if t.IsString {
		return t.String
	}
	return fmt.Sprintf("%d", t.Int)
}
