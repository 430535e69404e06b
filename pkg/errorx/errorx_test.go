package errorx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrapf(cause, CodeCacheError, "set key %s", "session_1")

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is 应能追溯到底层错误")
	}
	if err.Error() != "set key session_1: connection refused" {
		t.Fatalf("错误消息格式不符: %s", err.Error())
	}
	if GetCode(err) != CodeCacheError {
		t.Fatalf("错误码不符: %d", GetCode(err))
	}
}

func TestGetCodeDefault(t *testing.T) {
	if GetCode(errors.New("plain")) != CodeServerBusy {
		t.Fatal("非 CodeError 应返回 CodeServerBusy")
	}
	if GetCode(fmt.Errorf("wrapped: %w", New(CodeRoomFull, "满了"))) != CodeRoomFull {
		t.Fatal("fmt.Errorf 包装后仍应解析出错误码")
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{New(CodeNotFound, "x"), true},
		{New(CodeRoomNotFound, "x"), true},
		{New(CodeMessageNotFound, "x"), true},
		{New(CodeRoomFull, "x"), false},
		{errors.New("plain"), false},
	}
	for i, tc := range cases {
		if IsNotFound(tc.err) != tc.want {
			t.Fatalf("case %d: IsNotFound(%v) != %v", i, tc.err, tc.want)
		}
	}
}
