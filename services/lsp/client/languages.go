// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"sync"
)

// ServerConfig describes how to launch a language server.
type ServerConfig struct {
	// Language is the LSP language identifier sent in didOpen (e.g. "go").
	Language string

	// Command is the executable name or path.
	Command string

	// Args are command-line arguments for the server.
	Args []string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string

	// Extensions are the file extensions the server handles, with the dot.
	Extensions []string

	// InitializationOptions are passed verbatim in the initialize request.
	InitializationOptions json.RawMessage
}

// Registry maps languages and file extensions to server configurations.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byLanguage map[string]ServerConfig
	byExt      map[string]string
}

// NewRegistry creates a registry holding the built-in server configurations.
func NewRegistry() *Registry {
	r := &Registry{
		byLanguage: make(map[string]ServerConfig),
		byExt:      make(map[string]string),
	}
	for _, cfg := range builtinServers {
		r.Register(cfg)
	}
	return r
}

var builtinServers = []ServerConfig{
	{Language: "swift", Command: "sourcekit-lsp", Extensions: []string{".swift"}},
	{Language: "go", Command: "gopls", Args: []string{"serve"}, Extensions: []string{".go"}},
	{Language: "python", Command: "pyright-langserver", Args: []string{"--stdio"}, Extensions: []string{".py", ".pyi"}},
	{Language: "typescript", Command: "typescript-language-server", Args: []string{"--stdio"}, Extensions: []string{".ts", ".tsx"}},
	{Language: "javascript", Command: "typescript-language-server", Args: []string{"--stdio"}, Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
	{Language: "rust", Command: "rust-analyzer", Extensions: []string{".rs"}},
	{Language: "c", Command: "clangd", Extensions: []string{".c", ".h"}},
	{Language: "cpp", Command: "clangd", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}},
}

// Register adds or replaces the configuration for cfg.Language.
func (r *Registry) Register(cfg ServerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byLanguage[cfg.Language]; ok {
		for _, ext := range old.Extensions {
			if r.byExt[ext] == cfg.Language {
				delete(r.byExt, ext)
			}
		}
	}
	r.byLanguage[cfg.Language] = cfg
	for _, ext := range cfg.Extensions {
		r.byExt[ext] = cfg.Language
	}
}

// Get returns the configuration for a language.
func (r *Registry) Get(language string) (ServerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byLanguage[language]
	return cfg, ok
}

// ForPath returns the configuration whose extensions match path.
func (r *Registry) ForPath(path string) (ServerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.byExt[filepath.Ext(path)]
	if !ok {
		return ServerConfig{}, false
	}
	cfg, ok := r.byLanguage[lang]
	return cfg, ok
}

// Languages returns the registered languages in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
