// Package student contém o modelo de domínio do aluno avaliado nas aulas de
// Educação Física.
//
// O pacote define:
//
//   - Entidade Student com série (Grade), turma opcional (ClassID) e observações
//   - Draft e Changes, os formatos de criação e atualização enviados à API
//   - Repository, o contrato implementado pelo cliente da API externa
//
// # Matrícula
//
// A matrícula de um aluno aparece em dois lugares: no campo ClassID do próprio
// aluno e na lista de alunos da turma. Este pacote só conhece o primeiro lado;
// a conciliação entre os dois fica no pacote roster.
//
//	s, err := student.NewStudent(student.Draft{
//	    Name:  "Ana Souza",
//	    Age:   11,
//	    Grade: shared.Grade6,
//	})
//
// # Princípios
//
//  1. Sem dependências externas, apenas a biblioteca padrão
//  2. Identificadores são strings opacas normalizadas por shared.NormalizeID
//  3. Toda persistência acontece na API; aqui não há estado local
package student
