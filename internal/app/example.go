package app

import _ "embed"

//go:embed example_quiz.json
var exampleQuizJSON string

// ExampleQuizJSON returns the bundled sample document, shown to new clients
// so they can see the expected format and try the app without a file.
func ExampleQuizJSON() string {
	return exampleQuizJSON
}
