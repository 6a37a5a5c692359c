package engine

import "github.com/funvibe/ember/pkg/shape"

func accountsShape() shape.Shape {
	return shape.Seq(shape.Record(
		shape.Field{Name: "name", Shape: shape.String()},
		shape.Field{Name: "balance", Shape: shape.Int()},
	))
}
