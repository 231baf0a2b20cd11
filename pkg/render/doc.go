// Package render draws a laid-out canvas.
//
// The canvas already carries absolute card positions, so rendering does not
// lay anything out: [ToDOT] emits Graphviz DOT with every card pinned at its
// canvas position, and [RenderSVG] and [RenderPNG] run the neato engine
// in-process through go-graphviz to honour the pins.
//
//	dot := render.ToDOT(doc, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// A [Runner] adds artifact caching keyed by the document hash:
//
//	r := render.NewRunner(c, nil, logger)
//	out, err := r.Render(ctx, doc, render.Options{Format: render.FormatSVG})
package render
