package log

// Logger is what the aggregation engine and its adapters log through.
// Recovered instance failures are reported at warn level with Instance and
// Op fields; catalog inconsistencies at error level.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// Instance names the fleet member a line is about.
func Instance(name string) Field {
	return Field{Key: "instance", Value: name}
}

// Op names the instance call that produced a line, such as session-stats.
func Op(op string) Field {
	return Field{Key: "op", Value: op}
}

// ContentIDs lists catalog record IDs.
func ContentIDs(ids []int64) Field {
	return Field{Key: "content_ids", Value: ids}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Err attaches err under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
