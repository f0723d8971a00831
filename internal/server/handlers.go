package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/region23/medbook/internal/scheduling"
	"github.com/region23/medbook/internal/service"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/errors"
)

// AppointmentService - операции, которые сервер вызывает у сервисного слоя
type AppointmentService interface {
	RegisterPatient(ctx context.Context, in service.PatientInput) (models.Patient, error)
	ListPatients(ctx context.Context) []models.Patient
	GetPatient(ctx context.Context, id string) (models.Patient, error)
	UpdatePatient(ctx context.Context, id string, patch service.PatientPatch) (models.Patient, error)
	PatientHistory(ctx context.Context, id string) (service.PatientHistory, error)

	RegisterDoctor(ctx context.Context, in service.DoctorInput) (models.Doctor, error)
	ListDoctors(ctx context.Context) []models.Doctor
	GetDoctor(ctx context.Context, id string) (models.Doctor, error)
	DoctorsBySpecialty(ctx context.Context, specialty string) []models.Doctor
	DoctorAgenda(ctx context.Context, doctorID string) (service.DoctorAgenda, error)

	BookAppointment(ctx context.Context, req scheduling.Request) (models.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (models.Appointment, error)
	ListAppointments(ctx context.Context, filter service.AppointmentFilter) []models.Appointment
	GetAppointment(ctx context.Context, id string) (models.Appointment, error)

	AvailableDoctors(ctx context.Context, date, clock string) ([]models.Doctor, error)
	UpcomingAppointments(ctx context.Context) []models.Appointment
	TopDoctor(ctx context.Context) scheduling.DoctorStat
	TopSpecialty(ctx context.Context) scheduling.SpecialtyStat
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "medical appointment booking API", map[string]interface{}{
		"version": Version,
		"endpoints": map[string][]string{
			"patients": {
				"POST /patients",
				"GET /patients",
				"GET /patients/{id}",
				"PUT /patients/{id}",
				"GET /patients/{id}/history",
			},
			"doctors": {
				"POST /doctors",
				"GET /doctors",
				"GET /doctors/{id}",
				"GET /doctors/specialty/{specialty}",
				"GET /doctors/available?date=YYYY-MM-DD&time=HH:MM",
			},
			"appointments": {
				"POST /appointments",
				"GET /appointments?date=&status=",
				"GET /appointments/{id}",
				"PUT /appointments/{id}/cancel",
				"GET /appointments/doctor/{doctorId}",
				"GET /appointments/upcoming",
			},
			"stats": {
				"GET /stats/doctors",
				"GET /stats/specialties",
			},
		},
	})
}

// Пациенты

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var in service.PatientInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)

	patient, err := s.service.RegisterPatient(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "patient registered", patient)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.service.ListPatients(r.Context()))
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := s.service.GetPatient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", patient)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var patch service.PatientPatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if patch.Name != nil {
		name := sanitizeInput(*patch.Name)
		patch.Name = &name
	}

	patient, err := s.service.UpdatePatient(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "patient updated", patient)
}

func (s *Server) handlePatientHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.PatientHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", history)
}

// Врачи

func (s *Server) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var in service.DoctorInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Specialty = sanitizeInput(in.Specialty)

	doctor, err := s.service.RegisterDoctor(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "doctor registered", doctor)
}

func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.service.ListDoctors(r.Context()))
}

func (s *Server) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := s.service.GetDoctor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", doctor)
}

func (s *Server) handleDoctorsBySpecialty(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.service.DoctorsBySpecialty(r.Context(), chi.URLParam(r, "specialty")))
}

func (s *Server) handleAvailableDoctors(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	clock := r.URL.Query().Get("time")
	if date == "" || clock == "" {
		s.writeError(w, r, errors.ErrInvalidInput.WithMessage("date and time query parameters are required"))
		return
	}

	doctors, err := s.service.AvailableDoctors(r.Context(), date, clock)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", doctors)
}

func (s *Server) handleDoctorAgenda(w http.ResponseWriter, r *http.Request) {
	agenda, err := s.service.DoctorAgenda(r.Context(), chi.URLParam(r, "doctorId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", agenda)
}

// Записи

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	var req scheduling.Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Reason = sanitizeInput(req.Reason)

	appointment, err := s.service.BookAppointment(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "appointment booked", appointment)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := service.AppointmentFilter{Date: r.URL.Query().Get("date")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			s.writeError(w, r, errors.InvalidField("status", "must be scheduled or cancelled"))
			return
		}
		filter.Status = status
	}
	writeData(w, http.StatusOK, "", s.service.ListAppointments(r.Context(), filter))
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.service.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", appointment)
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := s.service.CancelAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "appointment cancelled", appointment)
}

func (s *Server) handleUpcomingAppointments(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.service.UpcomingAppointments(r.Context()))
}

// Статистика

func (s *Server) handleTopDoctor(w http.ResponseWriter, r *http.Request) {
	top := s.service.TopDoctor(r.Context())
	if !top.Found {
		writeData(w, http.StatusOK, "", struct{}{})
		return
	}
	writeData(w, http.StatusOK, "", top)
}

func (s *Server) handleTopSpecialty(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", s.service.TopSpecialty(r.Context()))
}
