package treelog

import "reflect"

// Renderer turns a message value of a registered type into text. Renderers
// let applications log domain objects directly and keep the textual shape in
// one place instead of at every call site.
type Renderer interface {
	Render(msg any) string
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(msg any) string

func (f RendererFunc) Render(msg any) string { return f(msg) }

// AddRenderer registers r for the concrete type of sample. The renderer is
// resolved when an event is constructed and applied on first render. Exact
// type match only; interfaces and embedded types are not walked.
func (h *Hierarchy) AddRenderer(sample any, r Renderer) {
	if sample == nil || r == nil {
		return
	}
	h.renderMu.Lock()
	defer h.renderMu.Unlock()
	if h.renderers == nil {
		h.renderers = make(map[reflect.Type]Renderer)
	}
	h.renderers[reflect.TypeOf(sample)] = r
}

func (h *Hierarchy) rendererFor(msg any) Renderer {
	if msg == nil {
		return nil
	}
	h.renderMu.RLock()
	defer h.renderMu.RUnlock()
	if len(h.renderers) == 0 {
		return nil
	}
	return h.renderers[reflect.TypeOf(msg)]
}
