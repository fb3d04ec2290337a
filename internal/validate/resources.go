package validate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/testimonial"
)

// ProjectUpdate checks a PATCH body. Only keys present in the body are
// checked; an explicit null clears a nullable column and is rejected for the
// cost columns. A blank go_live_date clears it like null.
func ProjectUpdate(in *project.UpdateProjectInput) Result {
	if in.Name.Valid {
		in.Name.V = trimmed(in.Name.V)
	}
	if in.Status.Valid {
		in.Status.V = trimmed(in.Status.V)
	}
	if in.GoLiveDate.Valid {
		in.GoLiveDate.V = trimmed(in.GoLiveDate.V)
	}

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.When(in.Name.Present, requiredText("Name", MaxNameLength)...)),
		validation.Field(&in.Status, validation.When(in.Status.Present,
			validation.Required.Error("Status is required"),
			oneOf("Status", project.Statuses),
		)),
		validation.Field(&in.HoursSavedDaily, nonNegative("Hours saved daily")),
		validation.Field(&in.HoursSavedWeekly, nonNegative("Hours saved weekly")),
		validation.Field(&in.HoursSavedMonthly, nonNegative("Hours saved monthly")),
		validation.Field(&in.EmployeeWage, wage("Employee wage")...),
		validation.Field(&in.DevCost, notNull(in.DevCost.Present && !in.DevCost.Valid, "Dev cost"), nonNegative("Dev cost")),
		validation.Field(&in.ImplementationCost,
			notNull(in.ImplementationCost.Present && !in.ImplementationCost.Valid, "Implementation cost"),
			nonNegative("Implementation cost")),
		validation.Field(&in.MonthlyMaintenance,
			notNull(in.MonthlyMaintenance.Present && !in.MonthlyMaintenance.Valid, "Monthly maintenance"),
			nonNegative("Monthly maintenance")),
		validation.Field(&in.GoLiveDate, date("Go-live date")),
	))
}

// TaskCreate checks a new task.
func TaskCreate(in *task.CreateTaskInput) Result {
	trim(&in.ProjectID)
	trim(&in.Description)
	trim(in.DueDate)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.ProjectID, uuidRules("Project ID")...),
		validation.Field(&in.Description, requiredText("Description", MaxTaskLength)...),
		validation.Field(&in.DueDate, date("Due date")),
	))
}

// TaskToggle checks a completion toggle.
func TaskToggle(in *task.ToggleTaskInput) Result {
	trim(&in.ID)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.ID, uuidRules("Task ID")...),
		validation.Field(&in.IsCompleted, validation.NotNil.Error("is_completed is required")),
	))
}

// NoteCreate checks a new note. The author is the caller and is not part of
// the payload.
func NoteCreate(in *note.CreateNoteInput) Result {
	trim(&in.ProjectID)
	trim(&in.NoteType)
	trim(&in.Content)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.ProjectID, uuidRules("Project ID")...),
		validation.Field(&in.NoteType,
			validation.Required.Error("Note type is required"),
			oneOf("Note type", note.Types),
		),
		validation.Field(&in.Content, requiredText("Content", MaxNoteLength)...),
	))
}

// NoteUpdate checks a note edit. At least one of content and is_read must
// be given.
func NoteUpdate(in *note.UpdateNoteInput) Result {
	trim(&in.ID)
	trim(in.Content)

	res := newResult(validation.ValidateStruct(in,
		validation.Field(&in.ID, uuidRules("Note ID")...),
		validation.Field(&in.Content, validation.When(in.Content != nil, requiredText("Content", MaxNoteLength)...)),
	))
	if in.Content == nil && in.IsRead == nil {
		res = res.with("content", "content or is_read is required")
	}
	return res
}

// TestimonialCreate checks a new testimonial.
func TestimonialCreate(in *testimonial.CreateTestimonialInput) Result {
	trim(&in.ClientID)
	trim(&in.UserID)
	trim(&in.Content)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.ClientID, uuidRules("Client ID")...),
		validation.Field(&in.UserID, uuidRules("User ID")...),
		validation.Field(&in.Content, requiredText("Content", MaxTestimonialLength)...),
	))
}

// ClientUpdate checks a client PATCH body.
func ClientUpdate(in *client.UpdateClientInput) Result {
	if in.CompanyName.Valid {
		in.CompanyName.V = trimmed(in.CompanyName.V)
	}
	if in.Industry.Valid {
		in.Industry.V = trimmed(in.Industry.V)
	}

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.CompanyName, validation.When(in.CompanyName.Present, requiredText("Company name", MaxNameLength)...)),
		validation.Field(&in.Industry, validation.RuneLength(0, MaxIndustryLength).Error("Industry must be at most 100 characters")),
		validation.Field(&in.AvgEmployeeWage, wage("Average employee wage")...),
	))
}
