package sample

type IntList []int

type StrList []string

// ForEach applies action to every element in order.
//
//weld:template for _, {action.arg0} := range self {
//weld:template 	{action.body}
//weld:template }
func (xs IntList) ForEach(action func(int)) {
	for _, v := range xs {
		action(v)
	}
}

// ForEach applies action to every element in order.
func (xs StrList) ForEach(action func(string)) {
	for _, v := range xs {
		action(v)
	}
}

// Sum adds every value using ForEach.
//
//weld:expand target=SumFast calls=ForEach
func (xs IntList) Sum() int {
	total := 0
	xs.ForEach(func(v int) {
		total += v
	})
	return total
}
