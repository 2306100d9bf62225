package v1alpha1

import "net/http"

// The replies are written with go-chi/render, which only needs the Renderer
// hook. None of them have anything to prepare.

func (Error) Render(_ http.ResponseWriter, _ *http.Request) error            { return nil }
func (Info) Render(_ http.ResponseWriter, _ *http.Request) error             { return nil }
func (Health) Render(_ http.ResponseWriter, _ *http.Request) error           { return nil }
func (Source) Render(_ http.ResponseWriter, _ *http.Request) error           { return nil }
func (SourceList) Render(_ http.ResponseWriter, _ *http.Request) error       { return nil }
func (IngestResult) Render(_ http.ResponseWriter, _ *http.Request) error     { return nil }
func (Reload) Render(_ http.ResponseWriter, _ *http.Request) error           { return nil }
func (FindingList) Render(_ http.ResponseWriter, _ *http.Request) error      { return nil }
func (Hierarchy) Render(_ http.ResponseWriter, _ *http.Request) error        { return nil }
func (DisasterRecovery) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }
func (Advice) Render(_ http.ResponseWriter, _ *http.Request) error           { return nil }
func (Analytics[T]) Render(_ http.ResponseWriter, _ *http.Request) error     { return nil }
