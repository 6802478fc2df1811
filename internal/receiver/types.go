package receiver

// Conf is the receiver configuration.
type Conf struct {
	ListenAddr  string // ListenAddr - адрес приема OSC, например 0.0.0.0:9001.
	ForwardAddr string // ForwardAddr - куда пересылать принятые пакеты; пусто - без пересылки.
}
