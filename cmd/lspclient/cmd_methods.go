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
	"reflect"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lspconn/services/lsp"
)

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the LSP methods the connection can send and decode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printMethods(cmd.OutOrStdout())
		},
	}
}

// printMethods writes the four dispatch tables as aligned columns.
func printMethods(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	sections := []struct {
		title   string
		methods []lsp.MethodInfo
	}{
		{"Client requests", lsp.ClientRequestMethods()},
		{"Client notifications", lsp.ClientNotificationMethods()},
		{"Server notifications", lsp.ServerNotificationMethods()},
		{"Server requests", lsp.ServerRequestMethods()},
	}
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d)\n", sec.title, len(sec.methods))
		for _, m := range sec.methods {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Method, typeName(m.Params), resultName(m))
		}
	}
	return tw.Flush()
}

func resultName(m lsp.MethodInfo) string {
	if m.Ack {
		return "ack"
	}
	if m.Result == nil {
		return ""
	}
	return "-> " + typeName(m.Result)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
