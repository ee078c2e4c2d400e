package model

type Availability struct {
	AvailableDate Date `json:"availableDate"`
}

type Availabilities struct {
	Availabilities []Availability `json:"availabilities"`
}

func NewAvailabilities(dates []Date) Availabilities {
	out := Availabilities{Availabilities: make([]Availability, 0, len(dates))}
	for _, d := range dates {
		out.Availabilities = append(out.Availabilities, Availability{AvailableDate: d})
	}
	return out
}

// DateRange is an optional availability window; nil bounds mean every active date.
type DateRange struct {
	Start *Date
	End   *Date
}

func (r DateRange) IsSet() bool {
	return r.Start != nil && r.End != nil
}
