package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vboard/internal/api"
	"vboard/internal/imagehealth"
	"vboard/internal/uploadstore"
)

const (
	uploadMultipartMemory = 8 << 20  // 8 MiB
	uploadBodySlack       = 64 << 10 // multipart framing on top of the file cap
)

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.writeServiceError(w, r, internalError(fmt.Errorf("uploads are not configured")))
		return
	}

	if s.uploadMaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes+uploadBodySlack)
	}
	if err := r.ParseMultipartForm(uploadMultipartMemory); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	ext, ok := uploadstore.AllowedExtension(header.Filename, s.allowedExtensions)
	if !ok {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(
			fmt.Errorf("file type not allowed, accepted: %s", strings.Join(s.allowedExtensions, ", ")),
			ErrCodeInvalidFileType,
		))
		return
	}

	saved, err := s.uploads.Save(r.Context(), ext, file, s.uploadMaxBytes)
	if err != nil {
		if errors.Is(err, uploadstore.ErrTooLarge) {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(
				fmt.Errorf("file too large, maximum %d MB", s.uploadMaxBytes>>20),
				ErrCodeRequestTooLarge,
			))
			return
		}
		s.writeServiceError(w, r, makeAPIError(http.StatusInternalServerError, "internal", ErrCodeUploadFailed, err))
		return
	}

	s.log().Info("image uploaded", "filename", saved.Name, "size_bytes", saved.SizeBytes)
	s.writeJSON(w, http.StatusOK, api.UploadResponse{
		Success:  true,
		ImageURL: s.uploadURL(saved.Name),
		Filename: saved.Name,
		Size:     saved.SizeBytes,
	})
}

func (s *Server) handleGetUploadedImage(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.writeServiceError(w, r, internalError(fmt.Errorf("uploads are not configured")))
		return
	}

	name := r.PathValue("filename")
	f, err := s.uploads.Open(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, classifyUploadError(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeServiceError(w, r, internalError(err))
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleDeleteUploadedImage(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.writeServiceError(w, r, internalError(fmt.Errorf("uploads are not configured")))
		return
	}

	name := r.PathValue("filename")
	if err := s.uploads.Delete(r.Context(), name); err != nil {
		s.writeServiceError(w, r, classifyUploadError(err))
		return
	}

	s.log().Info("image deleted", "filename", name)
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: "image deleted"})
}

// uploadURL is the public URL under which the prober recognizes a local upload.
func (s *Server) uploadURL(name string) string {
	return strings.TrimRight(s.publicURL, "/") + imagehealth.UploadPathPrefix + name
}

func classifyUploadError(err error) error {
	switch {
	case errors.Is(err, uploadstore.ErrInvalidName):
		return forbidden(fmt.Errorf("access denied"))
	case uploadstore.IsNotExist(err):
		return notFoundCode(fmt.Errorf("image not found"), ErrCodeUploadNotFound)
	default:
		return internalError(err)
	}
}

func classifyMultipartError(err error) error {
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}
