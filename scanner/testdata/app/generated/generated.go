package generated

type Model struct{}
