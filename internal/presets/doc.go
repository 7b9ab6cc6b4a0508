// Package presets compiles the preset catalog from CUE.
//
// A catalog is a CUE struct of presets keyed by id:
//
//	preset: clothing: {
//		name:        "Clothing"
//		description: "Apparel sizes with common colors"
//		attributes: [
//			{name: "Size", values: ["S", "M", "L"]},
//		]
//	}
//
// Every catalog is unified with the closed schema in schema.cue before it is
// read, so unknown fields and wrong types are rejected with CUE positions.
// Presets keep their declaration order.
package presets
