package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ServiceName is the fully-qualified name of the training service.
const ServiceName = "training.v1.TrainingService"

// Procedure paths of the training service.
const (
	CreateProgramProcedure      = "/training.v1.TrainingService/CreateProgram"
	GetProgramProcedure         = "/training.v1.TrainingService/GetProgram"
	RescheduleProgramProcedure  = "/training.v1.TrainingService/RescheduleProgram"
	ApplyProcedure              = "/training.v1.TrainingService/Apply"
	ApproveEnrollmentProcedure  = "/training.v1.TrainingService/ApproveEnrollment"
	RejectEnrollmentProcedure   = "/training.v1.TrainingService/RejectEnrollment"
	IssueCheckInCodeProcedure   = "/training.v1.TrainingService/IssueCheckInCode"
	CheckInProcedure            = "/training.v1.TrainingService/CheckIn"
	GetAttendanceProcedure      = "/training.v1.TrainingService/GetAttendance"
	RecordAbsenceProcedure      = "/training.v1.TrainingService/RecordAbsence"
	RequestCertificateProcedure = "/training.v1.TrainingService/RequestCertificate"
	ApproveCertificateProcedure = "/training.v1.TrainingService/ApproveCertificate"
	RejectCertificateProcedure  = "/training.v1.TrainingService/RejectCertificate"
	ExportCertificatesProcedure = "/training.v1.TrainingService/ExportCertificates"
)

// TrainingServiceHandler is implemented by the training server.
type TrainingServiceHandler interface {
	CreateProgram(context.Context, *connect.Request[CreateProgramRequest]) (*connect.Response[Program], error)
	GetProgram(context.Context, *connect.Request[GetProgramRequest]) (*connect.Response[Program], error)
	RescheduleProgram(context.Context, *connect.Request[RescheduleProgramRequest]) (*connect.Response[Program], error)
	Apply(context.Context, *connect.Request[ApplyRequest]) (*connect.Response[Enrollment], error)
	ApproveEnrollment(context.Context, *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error)
	RejectEnrollment(context.Context, *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error)
	IssueCheckInCode(context.Context, *connect.Request[IssueCheckInCodeRequest]) (*connect.Response[CheckInCode], error)
	CheckIn(context.Context, *connect.Request[CheckInRequest]) (*connect.Response[CheckInResult], error)
	GetAttendance(context.Context, *connect.Request[GetAttendanceRequest]) (*connect.Response[Attendance], error)
	RecordAbsence(context.Context, *connect.Request[RecordAbsenceRequest]) (*connect.Response[AbsenceResult], error)
	RequestCertificate(context.Context, *connect.Request[RequestCertificateRequest]) (*connect.Response[CertificateResult], error)
	ApproveCertificate(context.Context, *connect.Request[ApproveCertificateRequest]) (*connect.Response[Certificate], error)
	RejectCertificate(context.Context, *connect.Request[RejectCertificateRequest]) (*connect.Response[Certificate], error)
	ExportCertificates(context.Context, *connect.Request[ExportCertificatesRequest]) (*connect.Response[ExportResult], error)
}

// NewTrainingServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewTrainingServiceHandler(svc TrainingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateProgramProcedure, connect.NewUnaryHandler(CreateProgramProcedure, svc.CreateProgram, opts...))
	mux.Handle(GetProgramProcedure, connect.NewUnaryHandler(GetProgramProcedure, svc.GetProgram, opts...))
	mux.Handle(RescheduleProgramProcedure, connect.NewUnaryHandler(RescheduleProgramProcedure, svc.RescheduleProgram, opts...))
	mux.Handle(ApplyProcedure, connect.NewUnaryHandler(ApplyProcedure, svc.Apply, opts...))
	mux.Handle(ApproveEnrollmentProcedure, connect.NewUnaryHandler(ApproveEnrollmentProcedure, svc.ApproveEnrollment, opts...))
	mux.Handle(RejectEnrollmentProcedure, connect.NewUnaryHandler(RejectEnrollmentProcedure, svc.RejectEnrollment, opts...))
	mux.Handle(IssueCheckInCodeProcedure, connect.NewUnaryHandler(IssueCheckInCodeProcedure, svc.IssueCheckInCode, opts...))
	mux.Handle(CheckInProcedure, connect.NewUnaryHandler(CheckInProcedure, svc.CheckIn, opts...))
	mux.Handle(GetAttendanceProcedure, connect.NewUnaryHandler(GetAttendanceProcedure, svc.GetAttendance, opts...))
	mux.Handle(RecordAbsenceProcedure, connect.NewUnaryHandler(RecordAbsenceProcedure, svc.RecordAbsence, opts...))
	mux.Handle(RequestCertificateProcedure, connect.NewUnaryHandler(RequestCertificateProcedure, svc.RequestCertificate, opts...))
	mux.Handle(ApproveCertificateProcedure, connect.NewUnaryHandler(ApproveCertificateProcedure, svc.ApproveCertificate, opts...))
	mux.Handle(RejectCertificateProcedure, connect.NewUnaryHandler(RejectCertificateProcedure, svc.RejectCertificate, opts...))
	mux.Handle(ExportCertificatesProcedure, connect.NewUnaryHandler(ExportCertificatesProcedure, svc.ExportCertificates, opts...))

	return "/" + ServiceName + "/", mux
}

// TrainingServiceClient is a client for the training service.
type TrainingServiceClient interface {
	CreateProgram(context.Context, *connect.Request[CreateProgramRequest]) (*connect.Response[Program], error)
	GetProgram(context.Context, *connect.Request[GetProgramRequest]) (*connect.Response[Program], error)
	RescheduleProgram(context.Context, *connect.Request[RescheduleProgramRequest]) (*connect.Response[Program], error)
	Apply(context.Context, *connect.Request[ApplyRequest]) (*connect.Response[Enrollment], error)
	ApproveEnrollment(context.Context, *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error)
	RejectEnrollment(context.Context, *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error)
	IssueCheckInCode(context.Context, *connect.Request[IssueCheckInCodeRequest]) (*connect.Response[CheckInCode], error)
	CheckIn(context.Context, *connect.Request[CheckInRequest]) (*connect.Response[CheckInResult], error)
	GetAttendance(context.Context, *connect.Request[GetAttendanceRequest]) (*connect.Response[Attendance], error)
	RecordAbsence(context.Context, *connect.Request[RecordAbsenceRequest]) (*connect.Response[AbsenceResult], error)
	RequestCertificate(context.Context, *connect.Request[RequestCertificateRequest]) (*connect.Response[CertificateResult], error)
	ApproveCertificate(context.Context, *connect.Request[ApproveCertificateRequest]) (*connect.Response[Certificate], error)
	RejectCertificate(context.Context, *connect.Request[RejectCertificateRequest]) (*connect.Response[Certificate], error)
	ExportCertificates(context.Context, *connect.Request[ExportCertificatesRequest]) (*connect.Response[ExportResult], error)
}

type trainingServiceClient struct {
	createProgram      *connect.Client[CreateProgramRequest, Program]
	getProgram         *connect.Client[GetProgramRequest, Program]
	rescheduleProgram  *connect.Client[RescheduleProgramRequest, Program]
	apply              *connect.Client[ApplyRequest, Enrollment]
	approveEnrollment  *connect.Client[DecideEnrollmentRequest, Enrollment]
	rejectEnrollment   *connect.Client[DecideEnrollmentRequest, Enrollment]
	issueCheckInCode   *connect.Client[IssueCheckInCodeRequest, CheckInCode]
	checkIn            *connect.Client[CheckInRequest, CheckInResult]
	getAttendance      *connect.Client[GetAttendanceRequest, Attendance]
	recordAbsence      *connect.Client[RecordAbsenceRequest, AbsenceResult]
	requestCertificate *connect.Client[RequestCertificateRequest, CertificateResult]
	approveCertificate *connect.Client[ApproveCertificateRequest, Certificate]
	rejectCertificate  *connect.Client[RejectCertificateRequest, Certificate]
	exportCertificates *connect.Client[ExportCertificatesRequest, ExportResult]
}

// NewTrainingServiceClient constructs a client for the training service.
// Requests use the Connect protocol with JSON bodies.
func NewTrainingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TrainingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &trainingServiceClient{
		createProgram:      connect.NewClient[CreateProgramRequest, Program](httpClient, baseURL+CreateProgramProcedure, opts...),
		getProgram:         connect.NewClient[GetProgramRequest, Program](httpClient, baseURL+GetProgramProcedure, opts...),
		rescheduleProgram:  connect.NewClient[RescheduleProgramRequest, Program](httpClient, baseURL+RescheduleProgramProcedure, opts...),
		apply:              connect.NewClient[ApplyRequest, Enrollment](httpClient, baseURL+ApplyProcedure, opts...),
		approveEnrollment:  connect.NewClient[DecideEnrollmentRequest, Enrollment](httpClient, baseURL+ApproveEnrollmentProcedure, opts...),
		rejectEnrollment:   connect.NewClient[DecideEnrollmentRequest, Enrollment](httpClient, baseURL+RejectEnrollmentProcedure, opts...),
		issueCheckInCode:   connect.NewClient[IssueCheckInCodeRequest, CheckInCode](httpClient, baseURL+IssueCheckInCodeProcedure, opts...),
		checkIn:            connect.NewClient[CheckInRequest, CheckInResult](httpClient, baseURL+CheckInProcedure, opts...),
		getAttendance:      connect.NewClient[GetAttendanceRequest, Attendance](httpClient, baseURL+GetAttendanceProcedure, opts...),
		recordAbsence:      connect.NewClient[RecordAbsenceRequest, AbsenceResult](httpClient, baseURL+RecordAbsenceProcedure, opts...),
		requestCertificate: connect.NewClient[RequestCertificateRequest, CertificateResult](httpClient, baseURL+RequestCertificateProcedure, opts...),
		approveCertificate: connect.NewClient[ApproveCertificateRequest, Certificate](httpClient, baseURL+ApproveCertificateProcedure, opts...),
		rejectCertificate:  connect.NewClient[RejectCertificateRequest, Certificate](httpClient, baseURL+RejectCertificateProcedure, opts...),
		exportCertificates: connect.NewClient[ExportCertificatesRequest, ExportResult](httpClient, baseURL+ExportCertificatesProcedure, opts...),
	}
}

func (c *trainingServiceClient) CreateProgram(ctx context.Context, req *connect.Request[CreateProgramRequest]) (*connect.Response[Program], error) {
	return c.createProgram.CallUnary(ctx, req)
}

func (c *trainingServiceClient) GetProgram(ctx context.Context, req *connect.Request[GetProgramRequest]) (*connect.Response[Program], error) {
	return c.getProgram.CallUnary(ctx, req)
}

func (c *trainingServiceClient) RescheduleProgram(ctx context.Context, req *connect.Request[RescheduleProgramRequest]) (*connect.Response[Program], error) {
	return c.rescheduleProgram.CallUnary(ctx, req)
}

func (c *trainingServiceClient) Apply(ctx context.Context, req *connect.Request[ApplyRequest]) (*connect.Response[Enrollment], error) {
	return c.apply.CallUnary(ctx, req)
}

func (c *trainingServiceClient) ApproveEnrollment(ctx context.Context, req *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error) {
	return c.approveEnrollment.CallUnary(ctx, req)
}

func (c *trainingServiceClient) RejectEnrollment(ctx context.Context, req *connect.Request[DecideEnrollmentRequest]) (*connect.Response[Enrollment], error) {
	return c.rejectEnrollment.CallUnary(ctx, req)
}

func (c *trainingServiceClient) IssueCheckInCode(ctx context.Context, req *connect.Request[IssueCheckInCodeRequest]) (*connect.Response[CheckInCode], error) {
	return c.issueCheckInCode.CallUnary(ctx, req)
}

func (c *trainingServiceClient) CheckIn(ctx context.Context, req *connect.Request[CheckInRequest]) (*connect.Response[CheckInResult], error) {
	return c.checkIn.CallUnary(ctx, req)
}

func (c *trainingServiceClient) GetAttendance(ctx context.Context, req *connect.Request[GetAttendanceRequest]) (*connect.Response[Attendance], error) {
	return c.getAttendance.CallUnary(ctx, req)
}

func (c *trainingServiceClient) RecordAbsence(ctx context.Context, req *connect.Request[RecordAbsenceRequest]) (*connect.Response[AbsenceResult], error) {
	return c.recordAbsence.CallUnary(ctx, req)
}

func (c *trainingServiceClient) RequestCertificate(ctx context.Context, req *connect.Request[RequestCertificateRequest]) (*connect.Response[CertificateResult], error) {
	return c.requestCertificate.CallUnary(ctx, req)
}

func (c *trainingServiceClient) ApproveCertificate(ctx context.Context, req *connect.Request[ApproveCertificateRequest]) (*connect.Response[Certificate], error) {
	return c.approveCertificate.CallUnary(ctx, req)
}

func (c *trainingServiceClient) RejectCertificate(ctx context.Context, req *connect.Request[RejectCertificateRequest]) (*connect.Response[Certificate], error) {
	return c.rejectCertificate.CallUnary(ctx, req)
}

func (c *trainingServiceClient) ExportCertificates(ctx context.Context, req *connect.Request[ExportCertificatesRequest]) (*connect.Response[ExportResult], error) {
	return c.exportCertificates.CallUnary(ctx, req)
}
