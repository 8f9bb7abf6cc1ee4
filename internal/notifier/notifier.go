// Package notifier reports fan and blower actions to interested humans.
package notifier

type Notifier interface {
	Notify(title string, detail string)
}

type Notifiers []Notifier

func (n Notifiers) Notify(title string, detail string) {
	for _, l := range n {
		l.Notify(title, detail)
	}
}
