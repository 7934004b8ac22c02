// Package errors provides the classified error primitives used across sitenav.
//
// Every error that reaches the CLI carries a category (parse, schema, config,
// filesystem, ...), a severity and a retry hint, plus a small context map with
// the config path, key path and source position where that applies.
//
// Example usage:
//
//	err := errors.SchemaError("nav entry must map a title to a path or a list").
//		WithContext("key", "nav[2]").
//		WithContext("line", 14).
//		Build()
package errors
