package sample

import "fmt"

// Repeat invokes fn count times.
//
//weld:template for i := 0; i < count; i++ {
//weld:template 	{fn.body}
//weld:template }
func Repeat(count int, fn func()) {
	for i := 0; i < count; i++ {
		fn()
	}
}

// Announce prints a banner around repeated work.
//
//weld:expand
func Announce(count int) {
	fmt.Println("start")
	//weld:inline
	Repeat(count, func() {
		fmt.Println("tick")
	})
	fmt.Println("done")
}
