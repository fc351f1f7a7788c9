package scheduling

import "log"

// Notifier is informed of new bookings and status transitions. Delivery is
// fire-and-forget: the booking pipeline never waits on it and never fails
// because of it, so implementations must not block.
type Notifier interface {
	BookingCreated(appt *Appointment)
	BookingRescheduled(appt *Appointment)
	StatusChanged(appt *Appointment, previous AppointmentStatus)
}

// LogNotifier writes notifications to the process log. It is the default
// when no real delivery collaborator is wired in.
type LogNotifier struct{}

func (LogNotifier) BookingCreated(appt *Appointment) {
	log.Printf("notify: booking created appointment=%s provider=%s patient=%s date=%s queue=%d",
		appt.ID, appt.ProviderID, appt.PatientID, appt.Date.Format("2006-01-02"), appt.QueueNumber)
}

func (LogNotifier) BookingRescheduled(appt *Appointment) {
	log.Printf("notify: booking rescheduled appointment=%s date=%s queue=%d",
		appt.ID, appt.Date.Format("2006-01-02"), appt.QueueNumber)
}

func (LogNotifier) StatusChanged(appt *Appointment, previous AppointmentStatus) {
	log.Printf("notify: status changed appointment=%s from=%s to=%s",
		appt.ID, previous, appt.Status)
}
