package patient

import "errors"

var (
	ErrPatientNotFound       = errors.New("patient not found")
	ErrDocumentAlreadyExists = errors.New("patient with this document already exists")
)
