package config

type WorkerKeyStruct struct {
	FinalizeSessionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	FinalizeSessionsQueue: "finalize_sessions_queue",
}
