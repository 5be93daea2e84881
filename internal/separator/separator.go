// Package separator provide constant string separators for several use cases.
package separator

const (
	Space            string = " "
	Colon            string = ";"
	Comma            string = ","
	ForwardSlash     string = "/"
	OpenParenthesis  string = "("
	CloseParenthesis string = ")"
)
