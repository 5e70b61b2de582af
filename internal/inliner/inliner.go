// Package inliner defines the value types and collaborator interfaces of the
// weld expansion pipeline. Implementations live in the subpackages: analyzer
// scans and indexes source files, transformer rewrites trigger method bodies,
// generator emits the standalone output files.
package inliner

// MethodTransformer rewrites the body of one trigger method, replacing every
// eligible call site with its rendered template block.
type MethodTransformer interface {
	Transform(trigger Trigger) (Unit, error)
}

// UnitEmitter renders a transformed unit into a complete standalone source
// file: header comment, package clause, import block, generated method.
type UnitEmitter interface {
	Emit(unit Unit) (GeneratedFile, error)
}

// Engine orchestrates the per-trigger pipeline.
type Engine struct {
	transformer MethodTransformer
	emitter     UnitEmitter
}

// NewEngine creates a new Engine with its dependencies.
func NewEngine(transformer MethodTransformer, emitter UnitEmitter) *Engine {
	return &Engine{
		transformer: transformer,
		emitter:     emitter,
	}
}

// Expand transforms the trigger method and emits its generated file. The
// returned unit carries any advisory diagnostics produced along the way.
func (e *Engine) Expand(trigger Trigger) (Unit, GeneratedFile, error) {
	unit, err := e.transformer.Transform(trigger)
	if err != nil {
		return Unit{}, GeneratedFile{}, err
	}

	file, err := e.emitter.Emit(unit)
	if err != nil {
		return Unit{}, GeneratedFile{}, err
	}

	return unit, file, nil
}
