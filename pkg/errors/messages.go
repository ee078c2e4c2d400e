package errors

// DefaultMessage is returned for codes missing from a catalog.
const DefaultMessage = "Oups. Something went wrong. Try again."

// Messages maps error codes to user facing text in one language.
type Messages map[string]string

var English = Messages{
	CodeAlreadyBooked:          "Date is already booked by another user.",
	CodeAlreadyOccurred:        "Date already occurred.",
	CodeMinimumAheadOfArrival:  "The campsite can be reserved minimum 1 day(s) ahead of arrival.",
	CodeMaximumAheadOfArrival:  "The campsite can be reserved up to 1 month in advance.",
	CodeMaximumReservableDays:  "The campsite can be reserved for max 3 days.",
	CodeBookingIDNotFound:      "No booking with the given ID was found.",
	CodeDepartureBeforeArrival: "The departure date can't be before arrival date.",
	CodeEndDateBeforeStartDate: "The end date can't be before start date.",
	CodeInternal:               DefaultMessage,
	CodeTimeout:                "The request took too long. Try again.",
	CodeUnavailable:            "The booking engine is not taking requests right now. Try again.",
	CodeRateLimited:            "Too many requests. Slow down and try again.",
	CodeUnsupportedMediaType:   "Booking requests must be sent as application/json.",
	CodeRequestTooLarge:        "The request body is too large for a booking.",
}

func (m Messages) Lookup(code string) string {
	if msg, ok := m[code]; ok {
		return msg
	}
	return DefaultMessage
}
