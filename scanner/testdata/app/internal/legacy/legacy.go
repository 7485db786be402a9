package legacy

type Old struct{}
