package server

import "github.com/standardbeagle/jls/internal/protocol"

func (s *Server) javaStartProgress(title string) {
	s.client.CustomNotification("java/startProgress", protocol.StartProgressParams{Title: title})
}

func (s *Server) javaReportProgress(message string) {
	s.client.CustomNotification("java/reportProgress", protocol.ReportProgressParams{Message: message})
}

func (s *Server) javaEndProgress() {
	s.client.CustomNotification("java/endProgress", nil)
}
