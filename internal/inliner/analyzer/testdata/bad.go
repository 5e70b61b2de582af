package sample

//weld:template misplaced on a type
type Broken struct{}

// Frob takes no expansion arguments.
//
//weld:expand mode=fast
func Frob() {}

// Twice carries two expand directives.
//
//weld:expand
//weld:expand target=Other
func Twice() {}
