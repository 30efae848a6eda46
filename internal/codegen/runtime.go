package codegen

// runtimeRoutines is the fixed support library appended verbatim to every
// generated program. All console traffic goes through raw Linux syscalls:
// read (0) and write (1); the program itself exits via syscall 60. Every
// print routine appends a trailing newline. copy_str moves a zero-terminated
// string between variable buffers for string assignment. Numeric conversion
// is decimal
// only; float printing truncates toward zero and float reading parses the
// integer part, matching the integer routines it delegates to.
const runtimeRoutines = `print_int:
    push rbp
    mov rbp, rsp
    sub rsp, 32
    mov rax, rdi
    mov r8, 0
    cmp rax, 0
    jge .convert
    mov r8, 1
    neg rax
.convert:
    lea rsi, [rbp - 1]
    mov rcx, 0
    mov r9, 10
.digit:
    xor rdx, rdx
    div r9
    add dl, '0'
    mov byte [rsi], dl
    dec rsi
    inc rcx
    cmp rax, 0
    jne .digit
    cmp r8, 0
    je .write
    mov byte [rsi], '-'
    dec rsi
    inc rcx
.write:
    inc rsi
    mov rax, 1
    mov rdi, 1
    mov rdx, rcx
    syscall
    mov rax, 1
    mov rdi, 1
    lea rsi, [newline]
    mov rdx, 1
    syscall
    leave
    ret

read_int:
    mov rax, 0
    mov rdi, 0
    lea rsi, [input_buf]
    mov rdx, 64
    syscall
    lea rsi, [input_buf]
    mov rax, 0
    mov r8, 0
    cmp byte [rsi], '-'
    jne .digits
    mov r8, 1
    inc rsi
.digits:
    movzx rcx, byte [rsi]
    cmp rcx, '0'
    jb .done
    cmp rcx, '9'
    ja .done
    imul rax, 10
    sub rcx, '0'
    add rax, rcx
    inc rsi
    jmp .digits
.done:
    cmp r8, 0
    je .ret
    neg rax
.ret:
    ret

print_str:
    mov rsi, rdi
    mov rdx, 0
.scan:
    cmp byte [rsi + rdx], 0
    je .write
    inc rdx
    jmp .scan
.write:
    mov rax, 1
    mov rdi, 1
    syscall
    mov rax, 1
    mov rdi, 1
    lea rsi, [newline]
    mov rdx, 1
    syscall
    ret

copy_str:
.loop:
    mov al, byte [rsi]
    mov byte [rdi], al
    inc rsi
    inc rdi
    cmp al, 0
    jne .loop
    ret

read_str:
    mov rsi, rdi
    mov rax, 0
    mov rdi, 0
    mov rdx, 255
    syscall
    cmp rax, 0
    jg .check
    mov rax, 0
    jmp .terminate
.check:
    cmp byte [rsi + rax - 1], 10
    jne .terminate
    dec rax
.terminate:
    mov byte [rsi + rax], 0
    ret

print_float:
    cvttss2si rdi, xmm0
    call print_int
    ret

read_float:
    call read_int
    cvtsi2ss xmm0, rax
    ret
`
